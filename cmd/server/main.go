package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/integrations/paramstore"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/migrations"
	"github.com/rentitout/backend/internal/realtime"
	"github.com/rentitout/backend/internal/repository"
	"github.com/rentitout/backend/internal/routes"
	"github.com/rentitout/backend/pkg/logger"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig

	// Environment-based logger initialization (production = JSON, development = pretty)
	logger.Init(cfg.Env)
	logger.Info().Str("environment", cfg.Env).Msg("Starting Rent It Out Backend...")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Secrets from SSM, when a prefix is configured
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if cfg.SSMParameterPrefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load AWS config")
		}
		params, err := paramstore.New(ssm.NewFromConfig(awsCfg))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create parameter store client")
		}
		if err := cfg.ResolveSecrets(ctx, params); err != nil {
			logger.Fatal().Err(err).Msg("Failed to resolve secrets")
		}
		logger.Info().Str("prefix", cfg.SSMParameterPrefix).Msg("Secrets resolved from SSM")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	// 2. Connect Database
	database.Connect()
	redisUp := database.InitRedis()

	logger.Info().Msg("🔄 Running Database Migrations...")
	if err := database.AutoMigrate(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Msg("✅ Database Migrations Complete")

	// 3. Messaging: Redis carries the change feed and thread cache across
	// instances; without it everything stays in process.
	var (
		feed  messaging.Feed
		cache messaging.Cache
	)
	if redisUp {
		feed = realtime.NewRedisFeed(database.Redis)
		cache = database.NewThreadCache(database.Redis, cfg.ThreadCacheTTL())
	} else {
		logger.Warn().Msg("Redis unavailable, chat feed and cache are local to this instance")
		feed = realtime.NewHub(realtime.DefaultBuffer)
		cache = messaging.NewMemoryCache(cfg.ThreadCacheTTL())
	}
	svc := messaging.NewService(
		repository.NewChatMessages(database.DB, feed),
		repository.NewProducts(database.DB),
		messaging.WithCache(cache),
		messaging.WithLogger(logger.With("messaging")),
	)
	handlers.InitMessaging(svc, feed)

	// 4. Object storage for listing images
	if cfg.StorageConfigured() {
		client, err := handlers.NewR2Client(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create R2 client")
		}
		handlers.Storage = client
	} else {
		logger.Warn().Msg("R2 not configured, image uploads disabled")
	}
	cancel()

	// 5. Setup Router
	r := routes.NewRouter()

	// Init Socket.io
	socketServer := handlers.InitSocketServer()
	defer socketServer.Close()

	r.GET("/socket.io/*any", handlers.SocketHandler(socketServer))
	r.POST("/socket.io/*any", handlers.SocketHandler(socketServer))

	// 6. Start Server with graceful shutdown
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("🛑 Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("✅ Server exited gracefully")
}
