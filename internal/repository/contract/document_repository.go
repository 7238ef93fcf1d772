package contract

import (
	"context"

	"ai-pdf-tutor-be/internal/entity"
	"ai-pdf-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, pageCount int) error

	// Pages
	CreatePages(ctx context.Context, pages []*entity.DocumentPage) error
	FindPages(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentPage, error)
	DeletePagesByDocumentId(ctx context.Context, documentId uuid.UUID) error

	// Embeddings (pgvector)
	CreatePageEmbedding(ctx context.Context, documentId uuid.UUID, pageNumber int, chunk string, chunkIndex int, vector []float32) error
	SearchPages(ctx context.Context, documentId uuid.UUID, vector []float32, limit int) ([]*entity.PageSearchHit, error)
	DeleteEmbeddingsByDocumentId(ctx context.Context, documentId uuid.UUID) error
}
