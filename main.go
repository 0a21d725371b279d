package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/config"
	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/generator"
	"github.com/inedit/inedit-service/internal/handlers"
	"github.com/inedit/inedit-service/internal/repositories/casdoor"
	"github.com/inedit/inedit-service/internal/repositories/postgres"
	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/storage"
	"github.com/inedit/inedit-service/internal/utils"
	"github.com/inedit/inedit-service/internal/validator"
	"github.com/inedit/inedit-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	location, err := cfg.Credits.Location()
	if err != nil {
		log.Fatalf("Invalid CREDIT_TIMEZONE: %v", err)
	}
	policy, err := credits.NewPolicy(cfg.Credits.Policy, location)
	if err != nil {
		log.Fatalf("Invalid CREDIT_POLICY: %v", err)
	}

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, caching disabled", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Question generator (optional)
	var gen generator.Generator
	if cfg.OpenAI.APIKey != "" {
		gen = generator.NewOpenAIGenerator(cfg.OpenAI, slogLogger)
	} else {
		logger.Warn("OPENAI_API_KEY not set, question generation disabled")
	}

	// Object storage for file sources (optional)
	var blobs storage.BlobStore
	if cfg.Storage.Enabled() {
		store, err := storage.NewS3BlobStore(cfg.Storage, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.EnsureBucket(ctx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to prepare bucket %s: %v", cfg.Storage.Bucket, err)
		}
		blobs = store
	}

	// Event publisher
	var publisher events.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		publisher = events.NewInProcessEventPublisher(cfg.Kafka.Topic, slogLogger)
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(services.Dependencies{
		DB:        db,
		Repo:      repo,
		Logger:    slogLogger,
		Validator: validator.New(),
		Cache:     cache.NewCacheManager(redisClient),
		Policy:    policy,
		Location:  location,
		Generator: gen,
		BlobStore: blobs,
		Events:    publisher,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, repo.Identity(), logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSAllowOrigin)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"credit_policy", policy.Name(),
			"generation", gen != nil,
			"file_uploads", blobs != nil,
			"kafka", len(cfg.Kafka.Brokers) > 0)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
