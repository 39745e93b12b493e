package bootstrap

import (
	"context"
	"log"

	"publo-orchestrator/internal/config"
	"publo-orchestrator/internal/controller"
	"publo-orchestrator/internal/handler"
	"publo-orchestrator/internal/pkg/logger"
	"publo-orchestrator/internal/repository/memory"
	"publo-orchestrator/internal/repository/unitofwork"
	"publo-orchestrator/internal/service"
	"publo-orchestrator/internal/websocket"
	"publo-orchestrator/pkg/llm/factory"

	pktNats "publo-orchestrator/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	OrchestratorController controller.IOrchestratorController
	IntentController       controller.IIntentController
	SessionController      controller.IOrchestratorSessionController
	HealthController       controller.IHealthController

	// Background Services (Exposed for main.go to run)
	RelayService service.IRelayService

	// WebSockets & events
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider based on Config
	llmProvider, modelName, err := factory.NewLLMProvider(factory.Settings{
		ModelOverride:   cfg.Ai.ModelOverride,
		AnthropicAPIKey: cfg.Ai.AnthropicAPIKey,
		AnthropicModel:  cfg.Ai.AnthropicModel,
		OpenAIAPIKey:    cfg.Ai.OpenAIAPIKey,
		OpenAIModel:     cfg.Ai.OpenAIModel,
		OllamaBaseURL:   cfg.Ai.OllamaBaseURL,
		OllamaModel:     cfg.Ai.OllamaModel,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM model: %s", modelName)

	// Initialize In-Memory History Cache
	historyRepo := memory.NewHistoryRepository()

	// 3.5 Infrastructure (Moved up for dependency injection)
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
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.EventsTopic, pubSub)
	relayService := service.NewRelayService(pubSub, cfg.App.EventsTopic, wsHub, natsPub)

	sessionService := service.NewSessionService(uowFactory, historyRepo, natsSub)
	orchestratorService, err := service.NewOrchestratorService(
		llmProvider,
		sessionService,
		publisherService,
		cfg.Ai.CriticThreshold,
		cfg.Ai.MaxIterations,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to build orchestrator workflow: %v", err)
	}
	intentService := service.NewIntentService(llmProvider)

	// Session worker consumes canvas lifecycle events from NATS
	if natsSub != nil {
		go sessionService.Start()
	}

	// Handler
	eventsHandler := handler.NewEventsHandler(publisherService, wsHub, sysLogger)

	// 5. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		EventsHandler: eventsHandler,
		WebSocketHub:  wsHub,

		OrchestratorController: controller.NewOrchestratorController(orchestratorService),
		IntentController:       controller.NewIntentController(intentService),
		SessionController:      controller.NewOrchestratorSessionController(sessionService),
		HealthController:       controller.NewHealthController(db, cfg),

		RelayService: relayService,
	}
}
