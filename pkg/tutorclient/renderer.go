package tutorclient

import (
	"strings"

	"ai-pdf-tutor-be/pkg/tutor/citation"
)

// Message is one visible entry in the transcript.
type Message struct {
	Role    string
	Content string
}

// Renderer maintains the visible transcript while a turn streams in.
// The accumulated buffer, not the individual chunk, is the source of
// truth for display: every chunk arrival replaces the in-progress
// assistant message's content with the full buffer.
type Renderer struct {
	messages  []Message
	buffer    strings.Builder
	streaming bool
}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Append adds a completed message to the transcript.
func (r *Renderer) Append(msg Message) {
	r.messages = append(r.messages, msg)
}

// BeginTurn records the user's question and resets the stream buffer
// for the assistant's reply.
func (r *Renderer) BeginTurn(question string) {
	r.messages = append(r.messages, Message{Role: "user", Content: question})
	r.buffer.Reset()
	r.streaming = false
}

// ApplyChunk folds one decoded chunk into the buffer and re-renders the
// in-progress assistant message. The operation is a replace, not an
// append: the last message's content always equals the full buffer.
func (r *Renderer) ApplyChunk(chunk string) {
	r.buffer.WriteString(chunk)

	if !r.streaming {
		r.messages = append(r.messages, Message{Role: "assistant"})
		r.streaming = true
	}
	r.messages[len(r.messages)-1].Content = r.buffer.String()
}

// FinishTurn ends the stream, extracts the citation block from the
// buffer, and replaces the visible assistant message with the stripped
// text. On a malformed block the raw buffer stays visible so the user
// still sees the answer.
func (r *Renderer) FinishTurn() *citation.ExtractResult {
	result := citation.Extract(r.buffer.String())

	if r.streaming {
		r.messages[len(r.messages)-1].Content = result.Visible
	} else if result.Visible != "" {
		// Zero chunks arrived but a full body was handed over at once.
		r.messages = append(r.messages, Message{Role: "assistant", Content: result.Visible})
	}
	r.streaming = false

	return result
}

// Buffer returns the raw accumulated text of the current turn.
func (r *Renderer) Buffer() string {
	return r.buffer.String()
}

// Messages returns the visible transcript.
func (r *Renderer) Messages() []Message {
	return r.messages
}

// Last returns the most recent visible message, if any.
func (r *Renderer) Last() (Message, bool) {
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
