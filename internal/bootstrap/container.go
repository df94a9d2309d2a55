package bootstrap

import (
	"context"
	"log"

	"ai-ereader-be/internal/config"
	"ai-ereader-be/internal/controller"
	"ai-ereader-be/internal/handler"
	"ai-ereader-be/internal/pkg/logger"
	"ai-ereader-be/internal/repository/memory"
	"ai-ereader-be/internal/repository/unitofwork"
	"ai-ereader-be/internal/service"
	"ai-ereader-be/internal/websocket"
	"ai-ereader-be/pkg/llm/factory"
	"ai-ereader-be/pkg/transcribe"

	pktNats "ai-ereader-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	NoteController   controller.INoteController
	ReaderController controller.IReaderController
	TitleController  controller.ITitleController

	// Background Services (Exposed for main.go to run)
	DispatchService service.IDispatchService

	// WebSockets
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	transcriber := transcribe.NewWhisperProvider(cfg.Ai.TranscriberBaseURL, cfg.Ai.TranscriberModel)

	// Initialize In-Memory Conversation Storage
	conversationRepo := memory.NewConversationRepository()

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/realtime.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Reader.QnAChunkTopic, pubSub)

	noteService := service.NewNoteService(uowFactory)
	readerService := service.NewReaderService(uowFactory)
	titleService := service.NewTitleService(uowFactory, natsPub)
	qnaService := service.NewQnAService(
		llmProvider,
		transcriber,
		conversationRepo,
		publisherService,
		cfg.Reader.ChunkWordCount,
	)

	dispatchService := service.NewDispatchService(
		pubSub,
		cfg.Reader.QnAChunkTopic,
		natsSub,
		wsHub,
	)

	// 4. Controllers
	return &Container{
		NoteController:   controller.NewNoteController(noteService),
		ReaderController: controller.NewReaderController(readerService, qnaService),
		TitleController:  controller.NewTitleController(titleService),

		DispatchService: dispatchService,
		RealtimeHandler: handler.NewRealtimeHandler(wsHub, wsLogger),
		WebSocketHub:    wsHub,
	}
}
