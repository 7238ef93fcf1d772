package implementation

import (
	"context"
	"errors"

	"ai-pdf-tutor-be/internal/entity"
	"ai-pdf-tutor-be/internal/mapper"
	"ai-pdf-tutor-be/internal/model"
	"ai-pdf-tutor-be/internal/repository/contract"
	"ai-pdf-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entity.Document) error {
	m := r.mapper.DocumentToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *entity.Document) error {
	m := r.mapper.DocumentToModel(document)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Document, len(models))
	for i, m := range models {
		entities[i] = r.mapper.DocumentToEntity(m)
	}
	return entities, nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Document{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DocumentRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, pageCount int) error {
	updates := map[string]interface{}{"status": string(status)}
	if pageCount > 0 {
		updates["page_count"] = pageCount
	}
	return r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Pages

func (r *DocumentRepositoryImpl) CreatePages(ctx context.Context, pages []*entity.DocumentPage) error {
	if len(pages) == 0 {
		return nil
	}
	models := make([]*model.DocumentPage, len(pages))
	for i, p := range pages {
		models[i] = r.mapper.DocumentPageToModel(p)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}
	for i, m := range models {
		*pages[i] = *r.mapper.DocumentPageToEntity(m)
	}
	return nil
}

func (r *DocumentRepositoryImpl) FindPages(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentPage, error) {
	var models []*model.DocumentPage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("page_number ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	pages := make([]*entity.DocumentPage, len(models))
	for i, m := range models {
		pages[i] = r.mapper.DocumentPageToEntity(m)
	}
	return pages, nil
}

func (r *DocumentRepositoryImpl) DeletePagesByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Delete(&model.DocumentPage{}).Error
}

// Embeddings

func (r *DocumentRepositoryImpl) CreatePageEmbedding(ctx context.Context, documentId uuid.UUID, pageNumber int, chunk string, chunkIndex int, vector []float32) error {
	m := &model.DocumentPageEmbedding{
		DocumentId:     documentId,
		PageNumber:     pageNumber,
		Chunk:          chunk,
		ChunkIndex:     chunkIndex,
		EmbeddingValue: pgvector.NewVector(vector),
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *DocumentRepositoryImpl) SearchPages(ctx context.Context, documentId uuid.UUID, vector []float32, limit int) ([]*entity.PageSearchHit, error) {
	queryVector := pgvector.NewVector(vector)

	var results []struct {
		PageNumber int
		Chunk      string
		Similarity float32
	}

	err := r.db.WithContext(ctx).
		Model(&model.DocumentPageEmbedding{}).
		Select("page_number, chunk, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("document_id = ?", documentId).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]*entity.PageSearchHit, len(results))
	for i, res := range results {
		hits[i] = &entity.PageSearchHit{
			PageNumber: res.PageNumber,
			Chunk:      res.Chunk,
			Score:      res.Similarity,
		}
	}
	return hits, nil
}

func (r *DocumentRepositoryImpl) DeleteEmbeddingsByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Delete(&model.DocumentPageEmbedding{}).Error
}
