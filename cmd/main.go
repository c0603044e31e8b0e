package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/novahotels/concierge/adapters/backboard"
	"github.com/novahotels/concierge/adapters/mongo"
	"github.com/novahotels/concierge/domain/repositories"
	"github.com/novahotels/concierge/internal/api"
	"github.com/novahotels/concierge/internal/auth"
	"github.com/novahotels/concierge/internal/config"
	"github.com/novahotels/concierge/internal/hardware"
	"github.com/novahotels/concierge/internal/relay"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Storage
	db, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Close(ctx)
	}()

	guests := mongo.NewGuestRepository(db.Database)
	requests := mongo.NewRequestRepository(db.Database)
	feedback := mongo.NewFeedbackRepository(db.Database)
	unlocks := mongo.NewRoomUnlockRepository(db.Database)

	// Key cards from a previous process must be re-tapped.
	if err := unlocks.ResetAll(context.Background()); err != nil {
		logger.Warn("Failed to reset room unlock state", zap.Error(err))
	}

	// Long-term memory
	var memory repositories.MemoryStore
	if cfg.MemoryAPIKey != "" {
		client, err := backboard.NewClient(backboard.Config{
			APIKey:     cfg.MemoryAPIKey,
			APIBaseURL: cfg.MemoryAPIBase,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize memory client", zap.Error(err))
		}
		memory = client
	} else {
		logger.Warn("No memory API key configured, long-term memory disabled")
		memory = backboard.Noop{}
	}

	// Realtime concierge
	tools := relay.NewToolExecutor(requests, feedback, memory, cfg.WifiName, cfg.WifiPassword, logger)
	hub := relay.NewHub(guests, unlocks, requests, memory, tools, cfg, logger)

	// Door readers
	readers := hardware.NewReaderService(unlocks, logger)

	authManager := auth.NewManager(cfg.JWTSecret)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := api.NewServer(cfg, authManager, hub, guests, requests, feedback, unlocks, memory, readers, logger)
	server.Register(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Concierge server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
