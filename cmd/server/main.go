package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/api"
	"github.com/user/hundred-acre-realm/internal/game"
	"github.com/user/hundred-acre-realm/internal/index"
	"github.com/user/hundred-acre-realm/internal/logging"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		config.Exitf("failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		config.Exitf("failed to load configuration: %v", err)
	}

	// Set up logger
	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		config.Exitf("%v", err)
	}
	defer logger.Sync()

	// Open session index
	idx, err := index.Open(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open session index", zap.Error(err))
	}
	defer idx.Close()

	// Set up HTTP server for the artifact API
	storage := game.NewArtifactStorage(cfg.Paths.DataDir)
	server := setupHTTPServer(cfg, storage, idx, logger)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(server, logger)
}

func setupHTTPServer(cfg config.Config, storage *game.ArtifactStorage, idx *index.Index, logger *zap.Logger) *http.Server {
	handler := api.NewServer(storage, idx, cfg.Server.PublicURL, logger).Router()

	// Create HTTP server
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	logger.Info("Shutting down")
}
