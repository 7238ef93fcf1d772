package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is the visible form of a turn: for assistant messages the
// citation block has already been stripped by the extractor before persisting.
type ChatMessage struct {
	Id            uuid.UUID
	Chat          string
	Role          string
	ChatSessionId uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
