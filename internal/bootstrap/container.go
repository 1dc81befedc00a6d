package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-study-assistant-be/internal/config"
	"ai-study-assistant-be/internal/controller"
	"ai-study-assistant-be/internal/handler"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/internal/repository/contract"
	"ai-study-assistant-be/internal/repository/implementation"
	"ai-study-assistant-be/internal/repository/memory"
	"ai-study-assistant-be/internal/repository/updates"
	"ai-study-assistant-be/internal/service"
	"ai-study-assistant-be/internal/websocket"
	"ai-study-assistant-be/pkg/database"
	"ai-study-assistant-be/pkg/extract"
	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/factory"
	"ai-study-assistant-be/pkg/llm/orchestrator"
	pktNats "ai-study-assistant-be/pkg/nats"
	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"

	"github.com/redis/go-redis/v9"
)

const purgeInterval = time.Hour

type Container struct {
	StudyController controller.IStudyController
	StreamHandler   *handler.StreamHandler

	StudyService service.IStudyService
	// Nil when NATS is disabled or unreachable.
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	gormRepo *implementation.GormRecordRepository
	closers  []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Generation backends
	primary, err := factory.NewLLMProvider(cfg.Ai.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	var secondary llm.LLMProvider
	if cfg.Ai.Secondary.Type != "" {
		secondary, err = factory.NewLLMProvider(cfg.Ai.Secondary)
		if err != nil {
			return nil, fmt.Errorf("secondary provider: %w", err)
		}
	}
	sysLogger.Info("Bootstrap", "Generation backends ready", map[string]interface{}{
		"primary":   cfg.Ai.Primary.Type,
		"secondary": cfg.Ai.Secondary.Type,
	})
	orch := orchestrator.New(primary, secondary, sysLogger, orchestrator.WithCallTimeout(cfg.Ai.CallTimeout))

	// 2. Retrieval pipeline
	stop := scoring.NewStopList(cfg.Retrieval.StopWords)
	sel := selector.New(cfg.Retrieval.Selector())
	synthesis := executor.NewSynthesisExecutor(orch, sysLogger, cfg.Synthesis.ChunkChars, cfg.Synthesis.Workers)
	answer := executor.NewAnswerExecutor(orch, scoring.NewScorer(cfg.Retrieval.Weights()), sel, stop, sysLogger)
	quiz := executor.NewQuizExecutor(orch, sel, stop, sysLogger)

	// 3. Record store
	bus := updates.NewBus()
	c.closers = append(c.closers, func() { _ = bus.Close() })
	repo, err := c.newRecordRepository(cfg, bus, sysLogger)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 4. Messaging
	var publisherService service.IPublisherService
	var subscriber *pktNats.Subscriber
	if cfg.App.NatsEnabled {
		natsLogger := logger.NewIsolatedLogger("logs/nats.log")
		if pub, err := pktNats.NewPublisher(cfg.App.NatsURL, natsLogger); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err})
		} else {
			c.closers = append(c.closers, pub.Close)
			publisherService = service.NewPublisherService(pub)
		}
		if sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, natsLogger); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err})
		} else {
			c.closers = append(c.closers, sub.Close)
			subscriber = sub
		}
	}

	// 5. Services and transport
	c.StudyService = service.NewStudyService(repo, extract.NewRegistry(), synthesis, answer, quiz, publisherService, sysLogger)
	if subscriber != nil {
		c.ConsumerService = service.NewConsumerService(subscriber, c.StudyService, sysLogger)
	}

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(c.StudyService.Watch, wsLogger)

	c.StudyController = controller.NewStudyController(c.StudyService)
	c.StreamHandler = handler.NewStreamHandler(c.StudyService, c.WebSocketHub, wsLogger)

	return c, nil
}

func (c *Container) newRecordRepository(cfg *config.Config, bus *updates.Bus, log logger.ILogger) (contract.IRecordRepository, error) {
	switch cfg.Store.Driver {
	case "memory", "":
		return memory.NewRecordRepository(cfg.Store.TTL, bus), nil

	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return implementation.NewRedisRecordRepository(rdb, cfg.Store.TTL), nil

	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		c.closers = append(c.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		c.gormRepo = implementation.NewGormRecordRepository(db, bus, cfg.Store.TTL)
		return c.gormRepo, nil
	}
	return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
}

// Start launches the background workers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.WebSocketHub.Run(ctx)

	if c.ConsumerService != nil {
		go func() {
			c.Logger.Info("Bootstrap", "Starting Consumer Service", nil)
			if err := c.ConsumerService.Consume(ctx); err != nil {
				c.Logger.Error("Bootstrap", "Consumer Service stopped", map[string]interface{}{"error": err})
			}
		}()
	}

	if c.gormRepo != nil {
		go c.purgeExpired(ctx)
	}
}

func (c *Container) purgeExpired(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.gormRepo.PurgeExpired(ctx)
			if err != nil {
				c.Logger.Warn("Bootstrap", "Failed to purge expired records", map[string]interface{}{"error": err})
				continue
			}
			if n > 0 {
				c.Logger.Info("Bootstrap", "Purged expired records", map[string]interface{}{"count": n})
			}
		}
	}
}

// Close waits for background synthesis and releases connections.
func (c *Container) Close() {
	if c.StudyService != nil {
		c.StudyService.Wait()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	_ = c.Logger.Sync()
}
