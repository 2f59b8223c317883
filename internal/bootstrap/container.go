package bootstrap

import (
	"context"
	"log"

	"support-chat-be/internal/chat"
	"support-chat-be/internal/config"
	"support-chat-be/internal/controller"
	"support-chat-be/internal/handler"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/internal/repository/implementation"
	"support-chat-be/internal/repository/memory"
	"support-chat-be/internal/service"
	pktNats "support-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatController controller.IChatController
	ChatHandler    *handler.ChatHandler

	// Owned connections, closed by Shutdown.
	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	redis   *redis.Client
}

// NewContainer wires the whole dependency graph. db may be nil, in which case the
// in-memory store backs the chat core (dev mode).
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chatLogger := logger.NewIsolatedLogger(cfg.App.ChatLogFilePath)

	// Persistence collaborator
	var store chat.MessageStore
	if db != nil {
		roomRepo := implementation.NewRoomRepository(db)
		messageRepo := implementation.NewMessageRepository(db)
		store = service.NewChatStoreService(roomRepo, messageRepo)
	} else {
		log.Println("[WARN] No database configured, using in-memory chat store")
		store = memory.NewChatStore()
	}

	// In-process bus for room-list change signals
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Optional external sinks
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		p, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = p
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	eventPublisher := service.NewEventPublisherService(natsPub, rdb, sysLogger)

	// Chat core
	registry := chat.NewRegistry(store, chatLogger)
	roster := chat.NewRoster(registry, pubSub, chatLogger)
	router := chat.NewRouter(store, registry, pubSub, eventPublisher, chatLogger)
	visitorGateway := chat.NewVisitorGateway(registry, router, chatLogger)
	agentGateway := chat.NewAgentGateway(registry, roster, router, store, chatLogger)

	if err := roster.Start(context.Background()); err != nil {
		log.Fatalf("[FATAL] Failed to start roster subscriber: %v", err)
	}

	return &Container{
		ChatController: controller.NewChatController(store),
		ChatHandler:    handler.NewChatHandler(visitorGateway, agentGateway, chatLogger),
		pubSub:         pubSub,
		natsPub:        natsPub,
		redis:          rdb,
	}
}

// Shutdown closes the external connections the container owns. Call once, at process
// exit, after the HTTP server has stopped accepting work.
func (c *Container) Shutdown() {
	if c.pubSub != nil {
		if err := c.pubSub.Close(); err != nil {
			log.Printf("[WARN] Failed to close pub/sub: %v", err)
		}
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Printf("[WARN] Failed to close Redis client: %v", err)
		}
	}
}
