package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/catalog"
	"github.com/user/hundred-acre-realm/internal/game"
	"github.com/user/hundred-acre-realm/internal/logging"
	"github.com/user/hundred-acre-realm/internal/title"
	"go.uber.org/zap"
)

var (
	configPath string
	force      bool
	logLevel   string
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		config.Exitf("failed to load .env: %v", err)
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config/config.json", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Rebuild artifacts even when the ledger says they are current")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddGroup(stageGroup, batchGroup)
	for _, cmd := range stageCommands() {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(processCmd, processAllCmd, scoresCmd)
}

var rootCmd = &cobra.Command{
	Use:           "realm",
	Short:         "Turn uploaded game sessions into browsable artifacts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app is everything a command needs, built from the configuration file
type app struct {
	config  config.Config
	logger  *zap.Logger
	manager *game.Manager
}

func setup() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if force {
		cfg.Pipeline.Force = true
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.Paths.CatalogDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	manager := game.NewManager(cfg, cat, logger)
	manager.SetTitleGenerator(title.NewGenerator(cfg.Title, logger))

	return &app{config: cfg, logger: logger, manager: manager}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		config.Exitf("%v", err)
	}
}
