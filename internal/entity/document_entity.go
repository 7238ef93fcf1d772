package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusExtracting DocumentStatus = "extracting"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	FilePath  string
	FileSize  int64
	PageCount int
	Status    DocumentStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// PageSearchHit is one semantic-search result over a document's page chunks.
type PageSearchHit struct {
	PageNumber int
	Chunk      string
	Score      float32
}

// DocumentPage holds the extracted text of one page. PageNumber is 1-based,
// matching the [Page N] tags the prompt embeds and the citations reference.
type DocumentPage struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	PageNumber int
	Text       string
	CreatedAt  time.Time
}
