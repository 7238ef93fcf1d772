package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-pdf-tutor-be/internal/dto"
	"ai-pdf-tutor-be/internal/entity"
	"ai-pdf-tutor-be/internal/repository/specification"
	"ai-pdf-tutor-be/internal/repository/unitofwork"
	"ai-pdf-tutor-be/pkg/embedding"
	"ai-pdf-tutor-be/pkg/events"
	pktNats "ai-pdf-tutor-be/pkg/nats"
	"ai-pdf-tutor-be/pkg/pdf"
	"ai-pdf-tutor-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ExtractDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing extraction for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if doc == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	_ = uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusExtracting, 0)

	// 1. Extract per-page text
	result, err := pdf.ExtractFile(doc.FilePath)
	if err != nil {
		log.Printf("[ERROR] Failed to extract document %s: %v", doc.Id, err)
		_ = uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusFailed, 0)
		msg.Ack() // The file won't get better on retry
		return
	}

	pages := make([]*entity.DocumentPage, 0, len(result.Pages))
	for _, p := range result.Pages {
		if p.Text == "" {
			continue
		}
		pages = append(pages, &entity.DocumentPage{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			PageNumber: p.Number,
			Text:       p.Text,
			CreatedAt:  time.Now(),
		})
	}
	log.Printf("[INFO] Extracted %d text pages of %d for document %s", len(pages), result.PageCount, doc.Id)

	// 2. Embed each page in chunks for semantic search
	type pendingEmbedding struct {
		pageNumber int
		chunk      string
		chunkIndex int
		vector     []float32
	}
	var embeddings []pendingEmbedding

	for _, page := range pages {
		// ChunkSize 1500 chars with 200 overlap keeps chunks well under
		// embedding context limits
		chunks := utils.SplitText(page.Text, 1500, 200)
		for i, chunk := range chunks {
			res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
			if err != nil {
				log.Printf("[ERROR] Failed to embed page %d chunk %d of document %s: %v", page.PageNumber, i, doc.Id, err)
				msg.Nack()
				return
			}
			embeddings = append(embeddings, pendingEmbedding{
				pageNumber: page.PageNumber,
				chunk:      chunk,
				chunkIndex: i,
				vector:     res.Embedding.Values,
			})
		}
	}

	// 3. Replace pages and embeddings atomically
	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().DeleteEmbeddingsByDocumentId(ctx, doc.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}
	if err := uow.DocumentRepository().DeletePagesByDocumentId(ctx, doc.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old pages: %v", err)
		msg.Nack()
		return
	}

	if len(pages) > 0 {
		if err := uow.DocumentRepository().CreatePages(ctx, pages); err != nil {
			log.Printf("[ERROR] Failed to create pages: %v", err)
			msg.Nack()
			return
		}
	}
	for _, e := range embeddings {
		if err := uow.DocumentRepository().CreatePageEmbedding(ctx, doc.Id, e.pageNumber, e.chunk, e.chunkIndex, e.vector); err != nil {
			log.Printf("[ERROR] Failed to create page embedding: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusReady, result.PageCount); err != nil {
		log.Printf("[ERROR] Failed to update document status: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	// 4. Notify listeners the document became chat-ready
	if cs.eventPublisher != nil {
		evt := events.NewEvent("DOCUMENT_READY", map[string]interface{}{
			"document_id": doc.Id,
			"user_id":     doc.UserId,
			"page_count":  result.PageCount,
		})
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish DOCUMENT_READY event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Document processed: %d pages, %d embeddings for DocumentId: %s", len(pages), len(embeddings), doc.Id)
	msg.Ack()
}
