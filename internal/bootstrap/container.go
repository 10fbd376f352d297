package bootstrap

import (
	"context"
	"log"
	"os"

	"ai-research-be/internal/config"
	"ai-research-be/internal/controller"
	"ai-research-be/internal/handler"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/pkg/mailer"
	"ai-research-be/internal/repository/memory"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/internal/service"
	"ai-research-be/internal/websocket"
	"ai-research-be/pkg/embedding"
	embeddingfactory "ai-research-be/pkg/embedding/factory"
	"ai-research-be/pkg/retrieval"

	pktNats "ai-research-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	JobController     controller.IJobController
	HistoryController controller.IHistoryController
	CorpusController  controller.ICorpusController
	AdminController   controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Job Streams
	JobStreamHandler *handler.JobStreamHandler
	WebSocketHub     *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	agentLog := log.New(os.Stdout, "", log.LstdFlags)

	// Mail is optional; without an SMTP host the notify_email field is ignored.
	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.App.ClientURL,
		)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure (Moved up for dependency injection)
	// NATS mirror for job lifecycle events
	var natsPub *pktNats.Publisher
	if cfg.Nats.Enabled {
		pub, err := pktNats.NewPublisher(cfg.Nats.URL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Redis.URL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/jobstream.log")
	wsHub := websocket.NewHub(rdb, cfg.Redis.Channel, wsLogger)
	go wsHub.Run()

	// 3. Services
	// Default embedder for corpus search. Empty provider means keyword fallback.
	var defaultEmbedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider != "" {
		emb, err := embeddingfactory.NewEmbeddingProvider(
			cfg.Ai.EmbeddingProvider,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingAPIKey,
			cfg.Ai.EmbeddingBaseURL,
		)
		if err != nil {
			log.Printf("[WARN] Embedding provider misconfigured, using keyword search: %v", err)
		} else {
			defaultEmbedder = emb
			log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)
		}
	}

	retrievalCache := retrieval.NewResultCache(rdb, cfg.Pipeline.CacheTTL)
	corpusSearcher := retrieval.NewVectorSearcher(uowFactory, defaultEmbedder, retrievalCache, agentLog)

	jobs := memory.NewJobRepository(cfg.Pipeline.JobRetention)

	publisherService := service.NewPublisherService(cfg.Pipeline.JobTopic, pubSub)
	historyService := service.NewHistoryService(uowFactory)
	corpusService := service.NewCorpusService(uowFactory, corpusSearcher)

	jobService := service.NewJobService(
		jobs,
		uowFactory,
		retrievalCache,
		publisherService,
		historyService,
		corpusService,
		cfg.Ai,
		cfg.Pipeline,
		sysLogger,
		agentLog,
	)

	adminService := service.NewAdminService(cfg.Admin, jobService, uowFactory, sysLogger)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Pipeline.JobTopic,
		wsHub, // Hub implements JobStreamDelivery
		natsPub,
		emailService,
		sysLogger,
	)

	// Handler
	jobStreamHandler := handler.NewJobStreamHandler(jobService, publisherService, wsHub, wsLogger)

	// 4. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		JobStreamHandler: jobStreamHandler,
		WebSocketHub:     wsHub,

		JobController:     controller.NewJobController(jobService),
		HistoryController: controller.NewHistoryController(historyService),
		CorpusController:  controller.NewCorpusController(corpusService),
		AdminController:   controller.NewAdminController(adminService),

		ConsumerService: consumerService,
	}
}
