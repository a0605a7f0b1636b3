package bootstrap

import (
	"context"
	"log"

	"learnera-be/internal/config"
	"learnera-be/internal/handler"
	"learnera-be/internal/pkg/logger"
	"learnera-be/internal/pkg/token"
	"learnera-be/internal/repository/implementation"
	"learnera-be/internal/service"
	"learnera-be/internal/websocket"

	pktNats "learnera-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Handlers
	ChatHandler *handler.ChatHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	Hub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chatLogger := logger.NewIsolatedLogger(cfg.Chat.LogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

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

	// Redis backbone (optional; single-instance deployments run without it)
	var backbone websocket.Backbone
	if cfg.Chat.BackboneEnabled {
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
		backbone = websocket.NewRedisBackbone(rdb, chatLogger)
	} else {
		log.Println("[INFO] Cross-instance backbone disabled, hub runs locally")
	}

	// Hub (group registry + fan-out)
	hub := websocket.NewHub(backbone, chatLogger)
	hub.Run()

	// 3. Repositories
	userRepo := implementation.NewUserRepository(db)
	messageRepo := implementation.NewChatMessageRepository(db)

	// 4. Services
	directory := service.NewUserDirectory(userRepo)

	// The NATS publisher is optional at runtime; interface wiring must keep a
	// nil *Publisher from masquerading as a non-nil EventPublisher.
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	presenceService := service.NewPresenceService(directory, hub, eventPublisher, chatLogger)
	publisherService := service.NewPublisherService(cfg.Chat.MessagePersistedTopic, pubSub)
	chatService := service.NewChatService(directory, messageRepo, userRepo, hub, publisherService, chatLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Chat.MessagePersistedTopic, eventPublisher, chatLogger)

	// System broadcast worker
	if natsSub != nil {
		announcementService := service.NewAnnouncementService(natsSub, hub, chatLogger)
		go announcementService.Start()
	}

	// 5. Gateway + Handler
	verifier := token.NewVerifier(cfg.App.JWTSecret)
	gateway := websocket.NewGateway(hub, verifier, directory, chatService, presenceService, chatLogger)
	chatHandler := handler.NewChatHandler(chatService, gateway)

	sysLogger.Info("Bootstrap", "Container wired", map[string]interface{}{
		"backbone_enabled": cfg.Chat.BackboneEnabled,
		"nats_connected":   natsPub != nil,
	})

	return &Container{
		ChatHandler:     chatHandler,
		ConsumerService: consumerService,
		Hub:             hub,
	}
}
