package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id         uuid.UUID  `json:"id"`
	DocumentId uuid.UUID  `json:"document_id"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// CitationDTO mirrors the metadata block the model streams: one page plus the
// verbatim sentences quoted from it. The single-sentence wire form is
// normalized to Sentences before it reaches this type.
type CitationDTO struct {
	Page      int      `json:"page"`
	Sentences []string `json:"sentences"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID    `json:"id"`
	Role      string       `json:"role"`
	Chat      string       `json:"chat"`
	CreatedAt time.Time    `json:"created_at"`
	Citation  *CitationDTO `json:"citation,omitempty"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required"`
}

// CompletionRequest is the stateless wire shape: full history plus the raw
// document context, no session. Role must be "user" or "assistant".
type CompletionRequest struct {
	Messages []CompletionMessage `json:"messages" validate:"required,min=1,dive"`
	Context  string              `json:"context"`
}

type CompletionMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}

// ViewerStateResponse is the last grounding recorded for a session, so a
// reconnecting client can restore its viewer without waiting for the next turn.
type ViewerStateResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	CurrentPage   int       `json:"current_page"`
	Highlights    []string  `json:"highlights"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ViewerSyncEvent is pushed over the websocket after a turn completes, so every
// connected client of the session owner moves its viewer to the cited spot.
type ViewerSyncEvent struct {
	ChatSessionId uuid.UUID    `json:"chat_session_id"`
	DocumentId    uuid.UUID    `json:"document_id"`
	Citation      *CitationDTO `json:"citation,omitempty"`
}
