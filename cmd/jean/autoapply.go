package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/autoapply"
)

var autoApplyCmd = &cobra.Command{
	Use:   "autoapply",
	Short: "Run one auto-apply batch over all active rules and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAutoApply(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(autoApplyCmd)
}

func runAutoApply(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("opening storage", zap.Error(err))
		return err
	}
	defer store.Close()

	engine := autoapply.New(store, actions.New(store, logger), logger)
	res, err := engine.Run(ctx)
	if err != nil {
		logger.Error("auto-apply run failed", zap.Error(err))
		return err
	}
	if res.Disabled {
		logger.Info("auto-apply is disabled, nothing to do")
	}
	return nil
}
