package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/storage"
	"github.com/wantokjobs/jean/pkg/config"
)

const app = "jean"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jean is the WantokJobs conversational assistant service",
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus environment)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(cfg.Logging.Level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("creating a logger: %v", err)
	}
	return logger
}

func openStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Database.Driver {
	case "postgres":
		logger.Info("using PostgreSQL storage")
		return storage.NewPostgresStorage(cfg.Database.URL)
	case "sqlite":
		logger.Info("using SQLite storage", zap.String("path", cfg.Database.Path))
		return storage.NewSQLiteStorage(cfg.Database.Path)
	case "memory":
		logger.Info("using in-memory storage")
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
