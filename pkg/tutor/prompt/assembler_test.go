package prompt

import (
	"strings"
	"testing"

	"ai-pdf-tutor-be/pkg/llm"
)

func newTestAssembler() *Assembler {
	return NewAssembler(
		"You are a tutor.",
		"Append a citation block.",
		"Here is the extracted PDF content:\n\n%s",
	)
}

func TestAssembleOrder(t *testing.T) {
	a := newTestAssembler()
	history := []llm.Message{
		{Role: "user", Content: "What is osmosis?"},
		{Role: "assistant", Content: "Osmosis is..."},
	}

	messages := a.Assemble("[Page 1]: Osmosis is diffusion of water.", history, "And diffusion?")

	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}

	if messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "You are a tutor.") {
		t.Error("system message missing base instruction")
	}
	if !strings.Contains(messages[0].Content, "Append a citation block.") {
		t.Error("system message missing citation contract")
	}

	if messages[1].Role != "user" {
		t.Errorf("context message role = %q, want user", messages[1].Role)
	}
	if messages[1].Content != "Here is the extracted PDF content:\n\n[Page 1]: Osmosis is diffusion of water." {
		t.Errorf("unexpected context message: %q", messages[1].Content)
	}

	if messages[2].Content != "What is osmosis?" || messages[3].Content != "Osmosis is..." {
		t.Error("history not preserved in order")
	}

	last := messages[4]
	if last.Role != "user" || last.Content != "And diffusion?" {
		t.Errorf("last message = %+v, want new user question", last)
	}
}

func TestAssembleSkipsEmptyContext(t *testing.T) {
	a := newTestAssembler()

	messages := a.Assemble("   ", nil, "Hello?")

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[1].Content != "Hello?" {
		t.Errorf("unexpected question message: %q", messages[1].Content)
	}
}

func TestAssembleWithoutQuestion(t *testing.T) {
	a := newTestAssembler()
	history := []llm.Message{
		{Role: "user", Content: "Summarize page 2."},
	}

	messages := a.Assemble("doc", history, "")

	last := messages[len(messages)-1]
	if last.Content != "Summarize page 2." {
		t.Errorf("history should end the list when question is empty, got %q", last.Content)
	}
}

func TestAssembleWithoutCitationPrompt(t *testing.T) {
	a := NewAssembler("Base only.", "", "%s")

	messages := a.Assemble("", nil, "Q")

	if messages[0].Content != "Base only." {
		t.Errorf("system message = %q, want bare base instruction", messages[0].Content)
	}
}
