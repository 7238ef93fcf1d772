package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	PageCount int       `json:"page_count"`
	FileSize  int64     `json:"file_size"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentPageResponse struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

type DocumentPagesResponse struct {
	DocumentId uuid.UUID              `json:"document_id"`
	PageCount  int                    `json:"page_count"`
	Pages      []DocumentPageResponse `json:"pages"`
}

// PageSearchResult is one hit of the semantic page search, ordered by distance.
type PageSearchResult struct {
	PageNumber int     `json:"page_number"`
	Chunk      string  `json:"chunk"`
	Score      float32 `json:"score"`
}

type PageSearchResponse struct {
	DocumentId uuid.UUID          `json:"document_id"`
	Query      string             `json:"query"`
	Results    []PageSearchResult `json:"results"`
}
