package controller

import (
	"bufio"
	"context"
	"errors"

	"ai-pdf-tutor-be/internal/dto"
	"ai-pdf-tutor-be/internal/pkg/logger"
	"ai-pdf-tutor-be/internal/pkg/serverutils"
	"ai-pdf-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Sessions(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	Completions(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tutor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.Sessions)
	h.Get("/session/:id/history", c.History)
	h.Delete("/session/:id", c.DeleteSession)
	h.Post("/chat", c.Chat)
	h.Post("/completions", c.Completions)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return c.mapChatError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create chat session", res))
}

func (c *chatController) Sessions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chat sessions", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.chatService.GetChatHistory(ctx.Context(), userId, id)
	if err != nil {
		return c.mapChatError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat history", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	err := c.chatService.DeleteSession(ctx.Context(), userId, &dto.DeleteSessionRequest{ChatSessionId: id})
	if err != nil {
		return c.mapChatError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat session", nil))
}

// Chat streams one tutoring turn as raw text chunks. Everything that can
// fail with a meaningful status code happens in PrepareTurn, before the
// first byte of the body; once the stream starts the status is already
// 200 and a failed turn simply ends the body early.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	turn, err := c.chatService.PrepareTurn(ctx.Context(), userId, &req)
	if err != nil {
		return c.mapChatError(ctx, err)
	}

	c.streamPlainText(ctx, func(w *bufio.Writer) {
		// The request context dies with the handler; the service bounds
		// the stream with its own timeout.
		err := c.chatService.StreamTurn(context.Background(), turn, writeChunk(w))
		if err != nil {
			c.logger.Warn("ChatController", "Turn stream failed", map[string]interface{}{
				"chat_session_id": req.ChatSessionId,
				"error":           err.Error(),
			})
		}
	})
	return nil
}

// Completions is the stateless variant: nothing persisted, no session.
func (c *chatController) Completions(ctx *fiber.Ctx) error {
	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	c.streamPlainText(ctx, func(w *bufio.Writer) {
		err := c.chatService.StreamCompletion(context.Background(), &req, writeChunk(w))
		if err != nil {
			c.logger.Warn("ChatController", "Completion stream failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})
	return nil
}

func (c *chatController) streamPlainText(ctx *fiber.Ctx, body func(w *bufio.Writer)) {
	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set("X-Accel-Buffering", "no")
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(body))
}

// writeChunk flushes after every chunk so the client renders deltas as
// they arrive instead of waiting for the transport buffer to fill.
func writeChunk(w *bufio.Writer) service.StreamChunkHandler {
	return func(chunk string) error {
		if _, err := w.WriteString(chunk); err != nil {
			return err
		}
		return w.Flush()
	}
}

func (c *chatController) mapChatError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrDocumentNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	case errors.Is(err, service.ErrTurnInFlight):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	case errors.Is(err, service.ErrDocumentNotReady):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	return err
}
