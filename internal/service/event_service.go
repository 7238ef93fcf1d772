package service

import (
	"context"

	"ai-pdf-tutor-be/internal/pkg/logger"
	"ai-pdf-tutor-be/internal/websocket"
	"ai-pdf-tutor-be/pkg/events"
	pktNats "ai-pdf-tutor-be/pkg/nats"

	"github.com/google/uuid"
)

// EventService bridges domain events from NATS to connected clients.
// Its main job is telling the uploader's open tabs that a document
// finished extraction and can be chatted with.
type EventService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewEventService(subscriber *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) *EventService {
	return &EventService{
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
}

// Start registers the durable consumers. It returns after registration;
// delivery runs on the subscriber's goroutines.
func (s *EventService) Start() error {
	if err := s.subscriber.Subscribe("events.DOCUMENT_READY", "document-ready-push", s.handleDocumentReady); err != nil {
		return err
	}
	if err := s.subscriber.Subscribe("events.USER_LOGIN", "user-login-audit", s.handleUserLogin); err != nil {
		return err
	}
	return nil
}

func (s *EventService) handleDocumentReady(ctx context.Context, event events.Event) error {
	data := event.Payload()

	userIdStr, ok := data["user_id"].(string)
	if !ok {
		s.logger.Warn("EventService", "DOCUMENT_READY event without user_id", map[string]interface{}{"data": data})
		return nil
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.logger.Warn("EventService", "DOCUMENT_READY event with bad user_id", map[string]interface{}{"user_id": userIdStr})
		return nil
	}

	s.hub.Send(userId, websocket.Envelope{
		Type: "document_ready",
		Data: data,
	})
	return nil
}

func (s *EventService) handleUserLogin(ctx context.Context, event events.Event) error {
	s.logger.Info("EventService", "User login", event.Payload())
	return nil
}
