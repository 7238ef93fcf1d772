package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-pdf-tutor-be/internal/constant"
	"ai-pdf-tutor-be/internal/dto"
	"ai-pdf-tutor-be/internal/entity"
	"ai-pdf-tutor-be/internal/pkg/logger"
	"ai-pdf-tutor-be/internal/repository/memory"
	"ai-pdf-tutor-be/internal/repository/specification"
	"ai-pdf-tutor-be/internal/repository/unitofwork"
	"ai-pdf-tutor-be/internal/websocket"
	"ai-pdf-tutor-be/pkg/events"
	"ai-pdf-tutor-be/pkg/llm"
	pktNats "ai-pdf-tutor-be/pkg/nats"
	"ai-pdf-tutor-be/pkg/pdf"
	"ai-pdf-tutor-be/pkg/tutor/citation"
	"ai-pdf-tutor-be/pkg/tutor/prompt"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrTurnInFlight     = errors.New("a reply is already streaming for this session")
	ErrDocumentNotReady = errors.New("document is still being processed")
)

// StreamChunkHandler receives each model delta; returning an error
// aborts the stream.
type StreamChunkHandler func(chunk string) error

// ChatTurn is a prepared tutoring turn. PrepareTurn runs every check
// that can still produce a proper HTTP status (ownership, busy guard)
// and persists the user's question; StreamTurn then owns the response
// body. A prepared turn holds the session's busy marker until
// StreamTurn or AbortTurn releases it.
type ChatTurn struct {
	session  *entity.ChatSession
	userId   uuid.UUID
	question string
	docText  string
	history  []llm.Message
}

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error
	PrepareTurn(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*ChatTurn, error)
	StreamTurn(ctx context.Context, turn *ChatTurn, onChunk StreamChunkHandler) error
	AbortTurn(turn *ChatTurn)
	StreamCompletion(ctx context.Context, req *dto.CompletionRequest, onChunk StreamChunkHandler) error
	GetViewerState(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ViewerStateResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	assembler      *prompt.Assembler
	turnRepo       *memory.TurnRepository
	hub            *websocket.Hub
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	streamTimeout  time.Duration
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	turnRepo *memory.TurnRepository,
	hub *websocket.Hub,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	streamTimeout time.Duration,
) IChatService {
	if streamTimeout <= 0 {
		streamTimeout = 120 * time.Second
	}
	return &chatService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		assembler: prompt.NewAssembler(
			constant.TutorSystemPromptV1,
			constant.TutorCitationPromptV1,
			constant.TutorContextPromptV1,
		),
		turnRepo:       turnRepo,
		hub:            hub,
		eventPublisher: eventPublisher,
		logger:         log,
		streamTimeout:  streamTimeout,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// The session binds to one document; it must exist, belong to the
	// user, and have finished extraction.
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.DocumentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.Status != entity.DocumentStatusReady {
		return nil, ErrDocumentNotReady
	}

	session := &entity.ChatSession{
		Id:         uuid.New(),
		UserId:     userId,
		DocumentId: doc.Id,
		Title:      constant.SessionTitleFallback,
		CreatedAt:  time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = &dto.GetAllSessionsResponse{
			Id:         session.Id,
			DocumentId: session.DocumentId,
			Title:      session.Title,
			CreatedAt:  session.CreatedAt,
			UpdatedAt:  session.UpdatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	// Batch-load citations and attach them by message id.
	messageIds := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		messageIds[i] = m.Id
	}
	citations, err := uow.ChatMessageRepository().FindCitationsByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, err
	}
	citationByMessage := make(map[uuid.UUID]*entity.ChatCitation, len(citations))
	for _, c := range citations {
		citationByMessage[c.ChatMessageId] = c
	}

	responses := make([]*dto.GetChatHistoryResponse, len(messages))
	for i, m := range messages {
		res := &dto.GetChatHistoryResponse{
			Id:        m.Id,
			Role:      m.Role,
			Chat:      m.Chat,
			CreatedAt: m.CreatedAt,
		}
		if c, ok := citationByMessage[m.Id]; ok {
			res.Citation = &dto.CitationDTO{
				Page:      c.Page,
				Sentences: c.Sentences,
			}
		}
		responses[i] = res
	}
	return responses, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteCitationsByChatSessionId(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.turnRepo.DeleteViewerState(session.Id.String())
	return nil
}

// PrepareTurn runs the synchronous half of a tutoring turn: ownership
// check, busy guard, context assembly, and persisting the user's
// question. On success the session's busy marker is held and the
// caller must follow up with StreamTurn or AbortTurn.
func (s *chatService) PrepareTurn(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*ChatTurn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	// One in-flight turn per session. The marker's TTL covers a crashed
	// stream; normal turns release it on the way out.
	if !s.turnRepo.TryBeginTurn(session.Id.String(), s.streamTimeout+10*time.Second) {
		return nil, ErrTurnInFlight
	}

	turn, err := s.buildTurn(ctx, uow, session, userId, req.Chat)
	if err != nil {
		s.turnRepo.EndTurn(session.Id.String())
		return nil, err
	}
	return turn, nil
}

func (s *chatService) buildTurn(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession, userId uuid.UUID, question string) (*ChatTurn, error) {
	// 1. Load document pages for context
	pages, err := uow.DocumentRepository().FindPages(ctx, specification.ByDocumentID{DocumentID: session.DocumentId})
	if err != nil {
		return nil, err
	}
	docPages := make([]pdf.Page, len(pages))
	for i, p := range pages {
		docPages[i] = pdf.Page{Number: p.PageNumber, Text: p.Text}
	}
	docText := pdf.AssembleTaggedText(docPages)

	// 2. Load prior turns
	history, err := s.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	// 3. Persist the user's question before streaming; a failed stream
	// must not lose what the user typed
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Chat:          question,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	// First question names the session
	if len(history) == 0 && session.Title == constant.SessionTitleFallback {
		session.Title = truncateTitle(question, 80)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			s.logger.Warn("ChatService", "Failed to rename session", map[string]interface{}{"error": err.Error()})
		}
	}

	return &ChatTurn{
		session:  session,
		userId:   userId,
		question: question,
		docText:  docText,
		history:  history,
	}, nil
}

// AbortTurn releases a prepared turn that never streamed.
func (s *chatService) AbortTurn(turn *ChatTurn) {
	if turn == nil {
		return
	}
	s.turnRepo.EndTurn(turn.session.Id.String())
}

// StreamTurn runs the streaming half: it forwards each model delta to
// onChunk as raw text, and after the stream ends extracts the citation
// block, persists the stripped message plus citation, and pushes a
// viewer sync event to the user's connected clients.
func (s *chatService) StreamTurn(ctx context.Context, turn *ChatTurn, onChunk StreamChunkHandler) error {
	session := turn.session
	defer s.turnRepo.EndTurn(session.Id.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 4. Stream the completion
	messages := s.assembler.Assemble(turn.docText, turn.history, turn.question)

	streamCtx, cancel := context.WithTimeout(ctx, s.streamTimeout)
	defer cancel()

	full, err := s.llmProvider.ChatStream(streamCtx, messages, llm.StreamHandler(onChunk))
	if err != nil {
		return fmt.Errorf("completion stream failed: %w", err)
	}

	// 5. Extract the citation block from the full reply
	result := citation.Extract(full)
	if result.Malformed {
		s.logger.Warn("ChatService", "Malformed citation block, keeping raw reply", map[string]interface{}{
			"chat_session_id": session.Id,
		})
	}

	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Chat:          result.Visible,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return err
	}

	if result.Found && !result.Malformed && !result.Metadata.IsEmpty() {
		chatCitation := &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: assistantMessage.Id,
			DocumentId:    session.DocumentId,
			Page:          result.Metadata.Page,
			Sentences:     result.Metadata.Sentences,
			CreatedAt:     time.Now(),
		}
		if err := uow.ChatMessageRepository().CreateCitation(ctx, chatCitation); err != nil {
			return err
		}

		// 6. Remember the grounding and push it to connected viewers
		s.turnRepo.SaveViewerState(&memory.ViewerState{
			SessionId:   session.Id.String(),
			CurrentPage: result.Metadata.Page,
			Highlights:  result.Metadata.Sentences,
		})
		s.pushViewerSync(turn.userId, session, &result.Metadata)
	}

	if s.eventPublisher != nil {
		evt := events.NewEvent("TURN_COMPLETED", map[string]interface{}{
			"chat_session_id": session.Id,
			"user_id":         turn.userId,
			"cited_page":      result.Metadata.Page,
			"malformed":       result.Malformed,
		})
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("ChatService", "Failed to publish TURN_COMPLETED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

// StreamCompletion is the stateless variant: the caller supplies the
// full history and document context, nothing is persisted.
func (s *chatService) StreamCompletion(ctx context.Context, req *dto.CompletionRequest, onChunk StreamChunkHandler) error {
	history := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	messages := s.assembler.Assemble(req.Context, history, "")

	streamCtx, cancel := context.WithTimeout(ctx, s.streamTimeout)
	defer cancel()

	_, err := s.llmProvider.ChatStream(streamCtx, messages, llm.StreamHandler(onChunk))
	if err != nil {
		return fmt.Errorf("completion stream failed: %w", err)
	}
	return nil
}

// GetViewerState returns the last grounding recorded for a session, or
// the session's first page when no turn has cited anything yet.
func (s *chatService) GetViewerState(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ViewerStateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	state, found := s.turnRepo.GetViewerState(session.Id.String())
	if !found {
		return &dto.ViewerStateResponse{
			ChatSessionId: session.Id,
			CurrentPage:   1,
			Highlights:    []string{},
		}, nil
	}

	return &dto.ViewerStateResponse{
		ChatSessionId: session.Id,
		CurrentPage:   state.CurrentPage,
		Highlights:    state.Highlights,
		UpdatedAt:     state.UpdatedAt,
	}, nil
}

func (s *chatService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, len(messages))
	for i, m := range messages {
		history[i] = llm.Message{Role: m.Role, Content: m.Chat}
	}
	return history, nil
}

func (s *chatService) pushViewerSync(userId uuid.UUID, session *entity.ChatSession, meta *citation.Metadata) {
	if s.hub == nil {
		return
	}
	event := dto.ViewerSyncEvent{
		ChatSessionId: session.Id,
		DocumentId:    session.DocumentId,
		Citation: &dto.CitationDTO{
			Page:      meta.Page,
			Sentences: meta.Sentences,
		},
	}
	s.hub.Send(userId, websocket.Envelope{
		Type: "viewer_sync",
		Data: event,
	})
}

func truncateTitle(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return constant.SessionTitleFallback
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
