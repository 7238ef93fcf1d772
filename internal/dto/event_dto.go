package dto

import "github.com/google/uuid"

// ExtractDocumentMessage is the payload published on the extraction topic when
// a PDF upload lands. The consumer loads the file, splits it into pages, and
// embeds them.
type ExtractDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
