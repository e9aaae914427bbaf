package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realtime_chat_service/internal/chat/api/handlers"
	"realtime_chat_service/internal/chat/app"
	"realtime_chat_service/internal/chat/moderation"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/internal/chat/router"
	"realtime_chat_service/pkg/config"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"
	testtool "realtime_chat_service/pkg/test_tool"
	"realtime_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLog)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAML)
	if err != nil {
		logger.Log.Fatal("load config failed", zap.Error(err))
	}
	cfg.ApplyDefaults()
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	testtool.StartPprof()

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		token.JWTSecret = []byte(secret)
	}

	// 1. 建立 Mongo 連線 (存訊息, 聊天室)
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval) * time.Second,
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.String("host", cfg.MongoSQL.Host), zap.Error(err))
	}
	defer mongo.Close(context.Background())

	// 2. 建立 PostgreSQL 連線 (member directory + file records)
	pgConn := database.Connection{
		ConnectStr: fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}
	pgPool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	gormDB, err := database.NewGormConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}

	// 3. 建立 Redis 連線 (history, rate limit, session, Pub/Sub)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.Addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis failed", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. MinIO (presigned urls)
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("connect minio failed", zap.Error(err))
	}

	// 5. Kafka (message.created), best effort
	var events repository.MessageEventPublisher
	kafkaWriter, err := database.NewKafkaWriterWithRetry(ctx, database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Warn("kafka unavailable, message.created events disabled", zap.Error(err))
	} else {
		defer kafkaWriter.Close()
		events = repository.NewKafkaEventPublisher(kafkaWriter)
	}

	// 6. RabbitMQ (automated responder), best effort
	var responder repository.ResponderQueue
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr: fmt.Sprintf("amqp://%s:%s@%s:%d/",
			cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port),
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Warn("rabbitmq unavailable, automated responder disabled", zap.Error(err))
	} else {
		defer rabbitConn.Close()
		ch, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
		if err != nil {
			logger.Log.Fatal("rabbitmq channel failed", zap.Error(err))
		}
		defer ch.Close()
		responder, err = repository.NewRabbitResponderQueue(database.NewRabbitRepository(ch), cfg.Responder.Queue)
		if err != nil {
			logger.Log.Fatal("declare responder queue failed", zap.Error(err))
		}
	}

	// 7. 初始化 Repository
	roomRepo := repository.NewRoomRepository(mongo.Database)
	msgRepo := repository.NewMongoChatMessageRepository(mongo.Database)
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Warn("ensure message indexes failed", zap.Error(err))
	}
	userRepo := repository.NewUserRepository(pgPool)
	fileRepo := repository.NewFileRepository(gormDB)
	if err := fileRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("migrate file records failed", zap.Error(err))
	}
	sessionRepo := repository.NewSessionRepository(redisClient)
	history := repository.NewRedisHistoryStore(redisClient, cfg.History.Capacity, cfg.History.TTL)
	limiter := repository.NewRedisRateLimiter(redisClient)
	pubsub := repository.NewRedisPubSub(redisClient)

	moderator, err := moderation.NewModerator(cfg.Moderation.Words)
	if err != nil {
		logger.Log.Fatal("build moderator failed", zap.Error(err))
	}

	// 8. 初始化 UseCases
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := app.NewPipelineMetrics(registry)

	background := app.NewBackgroundRunner(cfg.SideEffect.Timeout)
	mapper := app.NewResponseMapper(userRepo, fileRepo, minioClient, cfg.Upload.PresignTTL)
	roomUC := app.NewRoomUseCase(roomRepo)
	loader := app.NewMessageLoader(history, msgRepo, mapper, background, cfg.Loader.BatchSize, cfg.Loader.MaxLimit)

	sendMessageUC := app.NewSendMessageUseCase(app.SendMessageDeps{
		Gate:        app.NewSessionGate(sessionRepo, cfg.Gate.SessionTimeout),
		Limiter:     limiter,
		Moderator:   moderator,
		Rooms:       roomUC,
		Users:       userRepo,
		Files:       fileRepo,
		Messages:    msgRepo,
		History:     history,
		Broadcaster: pubsub,
		Sessions:    sessionRepo,
		Responder:   responder,
		Events:      events,
		Mapper:      mapper,
		Metrics:     metrics,
		Background:  background,
	}, app.SendMessageConfig{
		MaxActions:       cfg.RateLimit.MaxActions,
		Window:           cfg.RateLimit.Window,
		RateLimitTimeout: cfg.Gate.RateLimitTimeout,
		UploadKeyPrefix:  cfg.Upload.KeyPrefix,
		ResponderNames:   cfg.Responder.Names,
		InstanceID:       cfg.InstanceID,
	})

	hub := app.NewRoomHub(pubsub)
	if err := hub.Run(ctx); err != nil {
		logger.Log.Fatal("subscribe room events failed", zap.Error(err))
	}
	wsHandler := app.NewChatWebsocketHandler(roomUC, sendMessageUC, loader, hub, metrics)

	// 9. gRPC health
	healthServer := database.NewHealthServer(config.EnvConfig.ChatService)
	go func() {
		if err := healthServer.Serve(cfg.GRPCPort); err != nil {
			logger.Log.Error("grpc health server stopped", zap.Error(err))
		}
	}()

	// 10. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLog), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("Failed to open access log file", zap.Error(err))
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(ctx, r, wsHandler, handlers.NewHistoryHandler(roomUC, loader), registry)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down chat service")
		healthServer.Shutdown()
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("fiber shutdown failed", zap.Error(err))
		}
	}()

	port := ":" + cfg.Port
	logger.Log.Info("Chat Service listening", zap.String("port", port), zap.String("instance", cfg.InstanceID))
	if err := r.Listen(port); err != nil {
		logger.Log.Error("Failed to start Fiber", zap.Error(err))
	}

	wsHandler.Wait()
	background.Wait()
}
