package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is one tutoring conversation, always bound to a document.
type ChatSession struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	DocumentId uuid.UUID
	Title      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
