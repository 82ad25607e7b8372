package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tradeproof/internal/config"
	"tradeproof/internal/extractor"
	"tradeproof/internal/handler"
	"tradeproof/internal/identity"
	"tradeproof/internal/middleware"
	"tradeproof/internal/pipeline"
	"tradeproof/internal/repository"
	"tradeproof/internal/server"
	"tradeproof/internal/service"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Tradeproof Review Service...")

	// Load .env if present, then configuration
	godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	for _, dir := range []string{cfg.Data.MediaDir, cfg.Data.ThumbnailsDir, filepath.Dir(cfg.Data.TagsDBPath)} {
		os.MkdirAll(dir, 0755)
	}

	// Load the message log
	messages, err := repository.LoadBuffers(cfg.Data.BuffersDir, logger)
	if err != nil {
		logger.Fatal("Failed to load message buffers", zap.Error(err))
	}
	logger.Info("Message log loaded", zap.Int("messages", len(messages)))
	messageRepo := repository.NewMessageRepository(messages)

	decisionRepo, err := repository.NewDecisionRepository(cfg.Data.AnnotatedDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize decision store", zap.Error(err))
	}

	tagRepo, err := repository.NewTagRepository(cfg.Data.TagsDBPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tag store", zap.Error(err))
	}
	defer tagRepo.Close()

	// Wire services
	extractorClient := extractor.NewClient(cfg.Extractor.URL, time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second)
	normalizer := pipeline.NewNormalizer(!cfg.Pipeline.AllowMissingDate, logger)

	reviewService := service.NewReviewService(
		messageRepo,
		decisionRepo,
		tagRepo,
		extractorClient,
		cfg.Data.MediaDir,
		time.Duration(cfg.Extractor.CacheTTLSeconds)*time.Second,
		logger,
	)
	queryService := service.NewMessageQueryService(messageRepo, decisionRepo, normalizer)
	analyticsService := service.NewAnalyticsService(decisionRepo)

	var identityClient *identity.Client
	if cfg.Identity.Enabled {
		identityClient = identity.NewClient(cfg.Identity.VerifyURL)
		logger.Info("Identity verification enabled", zap.String("url", cfg.Identity.VerifyURL))
	}

	apiHandler := handler.NewHandler(
		reviewService,
		queryService,
		analyticsService,
		tagRepo,
		identityClient,
		cfg.Data.MediaDir,
		cfg.Data.ThumbnailsDir,
		logger,
	)

	deps := server.Deps{Handler: apiHandler}
	if cfg.AccessControl.Enabled {
		authService := service.NewAuthService(cfg.AccessControl.JWTSecret, cfg.AccessControl.ReviewerPasswordHash, logger)
		deps.AuthHandler = handler.NewAuthHandler(authService, logger)
		deps.AuthMiddleware = middleware.AuthMiddleware(authService.Secret(), logger)
		logger.Info("Access control enabled")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: server.NewServer(deps).Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Tradeproof Review Service is running", zap.String("port", cfg.Server.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
