package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatCitation records which page and which verbatim sentences of the document
// an assistant message was grounded on. Sentences are stored in model output
// order; the single-sentence form is normalized to a one-element slice.
type ChatCitation struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	DocumentId    uuid.UUID
	Page          int
	Sentences     []string
	CreatedAt     time.Time
}
