package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/agent"
	"github.com/wantokjobs/jean/internal/autoapply"
	"github.com/wantokjobs/jean/internal/channel/telegram"
	"github.com/wantokjobs/jean/internal/extract"
	"github.com/wantokjobs/jean/internal/flow"
	"github.com/wantokjobs/jean/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server, and the Telegram bot when configured",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exec := actions.New(store, logger)
	a := agent.New(store, exec, flow.New(logger), extract.Plaintext{}, logger)
	srv := server.New(a, logger, nil)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat API listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Telegram.Enabled {
		bot, berr := telegram.New(cfg.Telegram.Token, a, store, logger)
		if berr != nil {
			logger.Error("creating telegram bot", zap.Error(berr))
			return berr
		}
		go func() {
			if terr := bot.Start(ctx); terr != nil && !errors.Is(terr, context.Canceled) {
				errCh <- terr
			}
		}()
	}

	if cfg.AutoApply.Interval != "" {
		interval, perr := time.ParseDuration(cfg.AutoApply.Interval)
		if perr != nil {
			logger.Error("parsing autoapply.interval", zap.Error(perr))
			return perr
		}
		engine := autoapply.New(store, exec, logger)
		go runAutoApplyLoop(ctx, engine, interval, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("http shutdown", zap.Error(serr))
	}
	return err
}

func runAutoApplyLoop(ctx context.Context, engine *autoapply.Engine, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("auto-apply scheduler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := engine.Run(ctx); err != nil && !errors.Is(err, autoapply.ErrAlreadyRunning) {
				logger.Error("scheduled auto-apply run failed", zap.Error(err))
			}
		}
	}
}
