package handler

import (
	"os"

	"ai-pdf-tutor-be/internal/pkg/logger"
	"ai-pdf-tutor-be/internal/pkg/serverutils"
	"ai-pdf-tutor-be/internal/service"
	internalWS "ai-pdf-tutor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SyncHandler owns the viewer synchronization surface: the websocket
// that pushes viewer_sync events after each turn, and the REST endpoint
// a reconnecting client uses to restore its last viewer state.
type SyncHandler struct {
	chatService service.IChatService
	hub         *internalWS.Hub
	logger      logger.ILogger
}

func NewSyncHandler(chatService service.IChatService, hub *internalWS.Hub, log logger.ILogger) *SyncHandler {
	return &SyncHandler{
		chatService: chatService,
		hub:         hub,
		logger:      log,
	}
}

func (h *SyncHandler) RegisterRoutes(router fiber.Router) {
	sync := router.Group("/sync")
	sync.Get("/ws", h.ServeWs)

	state := sync.Group("/viewer-state")
	state.Use(serverutils.JwtMiddleware)
	state.Get("/:id", h.GetViewerState)
}

// ServeWs upgrades the connection and registers the client with the hub.
// Browsers cannot set headers on websocket handshakes, so the token is
// accepted from the query string as well.
func (h *SyncHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "missing token"))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("SyncHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "invalid token claims"))
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "token missing user_id"))
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "invalid user id in token"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("SyncHandler", "Viewer sync session started", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID)
			h.logger.Info("SyncHandler", "Viewer sync session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// GetViewerState returns the last grounding recorded for a session so a
// page refresh lands the viewer back where the tutor left it.
func (h *SyncHandler) GetViewerState(c *fiber.Ctx) error {
	userIdStr := c.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(c.Params("id"))

	res, err := h.chatService.GetViewerState(c.Context(), userId, id)
	if err != nil {
		if err == service.ErrSessionNotFound {
			return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Success show viewer state", res))
}
