package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-pdf-tutor-be/internal/config"
	"ai-pdf-tutor-be/internal/constant"
	"ai-pdf-tutor-be/internal/controller"
	"ai-pdf-tutor-be/internal/handler"
	"ai-pdf-tutor-be/internal/pkg/logger"
	"ai-pdf-tutor-be/internal/pkg/mailer"
	"ai-pdf-tutor-be/internal/repository/memory"
	"ai-pdf-tutor-be/internal/repository/unitofwork"
	"ai-pdf-tutor-be/internal/service"
	"ai-pdf-tutor-be/internal/websocket"
	"ai-pdf-tutor-be/pkg/embedding"
	"ai-pdf-tutor-be/pkg/llm/factory"

	pktNats "ai-pdf-tutor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	UserController     controller.IUserController
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	EventService    *service.EventService

	// WebSockets
	SyncHandler  *handler.SyncHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	embeddingProvider, err := embedding.NewEmbeddingProvider(embedding.ProviderConfig{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         cfg.Ai.EmbeddingModel,
		OpenAIAPIKey:  cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
	}
	log.Printf("[INFO] Using embedding provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OpenAIAPIKey:  cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory turn guard and viewer state
	turnRepo := memory.NewTurnRepository()

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub for viewer sync fanout
	wsLogger := logger.NewIsolatedLogger("logs/sync.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	publisherService := service.NewPublisherService(constant.TopicDocumentExtraction, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.TopicDocumentExtraction,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	userService := service.NewUserService(uowFactory)
	documentService := service.NewDocumentService(uowFactory, publisherService, embeddingProvider)
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		turnRepo,
		wsHub,
		natsPub,
		sysLogger,
		time.Duration(cfg.Ai.StreamTimeoutSec)*time.Second,
	)

	var eventService *service.EventService
	if natsSub != nil {
		eventService = service.NewEventService(natsSub, wsHub, wsLogger)
		if err := eventService.Start(); err != nil {
			log.Printf("[WARN] Failed to start event service: %v", err)
		}
	}

	syncHandler := handler.NewSyncHandler(chatService, wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		UserController:     controller.NewUserController(userService),
		DocumentController: controller.NewDocumentController(documentService, cfg.Upload.Dir, cfg.Upload.MaxFileSizeMB),
		ChatController:     controller.NewChatController(chatService, sysLogger),

		ConsumerService: consumerService,
		EventService:    eventService,

		SyncHandler:  syncHandler,
		WebSocketHub: wsHub,
	}
}
