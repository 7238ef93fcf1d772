package prompt

import (
	"fmt"
	"strings"

	"ai-pdf-tutor-be/pkg/llm"
)

// Assembler composes the message list for one tutoring turn: the fixed
// instruction, the extracted document text, the prior conversation, and
// the new question.
type Assembler struct {
	SystemPrompt    string
	CitationPrompt  string
	ContextTemplate string // fmt template with one %s for the document text
}

func NewAssembler(systemPrompt, citationPrompt, contextTemplate string) *Assembler {
	return &Assembler{
		SystemPrompt:    systemPrompt,
		CitationPrompt:  citationPrompt,
		ContextTemplate: contextTemplate,
	}
}

// Assemble builds the ordered message list for a turn. The question may
// be empty when the caller's history already ends with the user's
// message (stateless completion requests work that way).
func (a *Assembler) Assemble(documentText string, history []llm.Message, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+3)

	// 1. Fixed instruction, with the citation contract appended.
	system := a.SystemPrompt
	if a.CitationPrompt != "" {
		system = system + "\n\n" + a.CitationPrompt
	}
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: system,
	})

	// 2. Document context as a user message, matching how the chat
	// client presents it to the model.
	if strings.TrimSpace(documentText) != "" {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf(a.ContextTemplate, documentText),
		})
	}

	// 3. Prior turns, oldest first.
	messages = append(messages, history...)

	// 4. The new question.
	if question != "" {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: question,
		})
	}

	return messages
}
