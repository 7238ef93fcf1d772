package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"ai-pdf-tutor-be/internal/dto"
	"ai-pdf-tutor-be/internal/entity"
	"ai-pdf-tutor-be/internal/repository/specification"
	"ai-pdf-tutor-be/internal/repository/unitofwork"
	"ai-pdf-tutor-be/pkg/embedding"
	"ai-pdf-tutor-be/pkg/pdf"

	"github.com/google/uuid"
)

var ErrDocumentNotFound = errors.New("document not found")

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, title, filePath string, fileSize int64) (*dto.DocumentResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error)
	Get(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error)
	GetPages(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentPagesResponse, error)
	SearchPages(ctx context.Context, userId, documentId uuid.UUID, query string, limit int) (*dto.PageSearchResponse, error)
	Delete(ctx context.Context, userId, documentId uuid.UUID) error
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
	}
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:        doc.Id,
		Title:     doc.Title,
		PageCount: doc.PageCount,
		FileSize:  doc.FileSize,
		Status:    string(doc.Status),
		CreatedAt: doc.CreatedAt,
	}
}

// findOwned loads a document and enforces ownership in one query.
func (s *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, title, filePath string, fileSize int64) (*dto.DocumentResponse, error) {
	// 1. Validate the magic bytes before accepting the file
	header := make([]byte, 5)
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	_, readErr := f.Read(header)
	f.Close()
	if readErr != nil || !pdf.ValidatePDF(header) {
		_ = os.Remove(filePath)
		return nil, errors.New("uploaded file is not a valid PDF")
	}

	// 2. Create the document record
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		FilePath:  filePath,
		FileSize:  fileSize,
		Status:    entity.DocumentStatusUploaded,
		CreatedAt: time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	// 3. Queue extraction; the worker moves status forward from here
	payload := dto.ExtractDocumentMessage{DocumentId: doc.Id}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		return nil, fmt.Errorf("failed to queue extraction: %w", err)
	}

	return toDocumentResponse(doc), nil
}

func (s *documentService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}
	return responses, nil
}

func (s *documentService) Get(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) GetPages(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentPagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	pages, err := uow.DocumentRepository().FindPages(ctx, specification.ByDocumentID{DocumentID: doc.Id})
	if err != nil {
		return nil, err
	}

	res := &dto.DocumentPagesResponse{
		DocumentId: doc.Id,
		PageCount:  doc.PageCount,
		Pages:      make([]dto.DocumentPageResponse, len(pages)),
	}
	for i, p := range pages {
		res.Pages[i] = dto.DocumentPageResponse{
			PageNumber: p.PageNumber,
			Text:       p.Text,
		}
	}
	return res, nil
}

func (s *documentService) SearchPages(ctx context.Context, userId, documentId uuid.UUID, query string, limit int) (*dto.PageSearchResponse, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	embRes, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := uow.DocumentRepository().SearchPages(ctx, doc.Id, embRes.Embedding.Values, limit)
	if err != nil {
		return nil, err
	}

	res := &dto.PageSearchResponse{
		DocumentId: doc.Id,
		Query:      query,
		Results:    make([]dto.PageSearchResult, len(hits)),
	}
	for i, hit := range hits {
		res.Results[i] = dto.PageSearchResult{
			PageNumber: hit.PageNumber,
			Chunk:      hit.Chunk,
			Score:      hit.Score,
		}
	}
	return res, nil
}

func (s *documentService) Delete(ctx context.Context, userId, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().DeleteEmbeddingsByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().DeletePagesByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	// Best effort; the record is the source of truth
	_ = os.Remove(doc.FilePath)
	return nil
}
