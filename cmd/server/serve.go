package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taste-match/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			addr, err := app.ListenAddr(cfg.App.HTTPPort)
			if err != nil {
				return fmt.Errorf("invalid HTTP port: %w", err)
			}

			bootstrap, cleanup, err := app.Bootstrap(cfg, log)
			if err != nil {
				return fmt.Errorf("bootstrap app: %w", err)
			}
			defer func() {
				if err := cleanup(); err != nil {
					log.Warn("cleanup error", zap.Error(err))
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				errCh <- bootstrap.Fiber.Listen(addr)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case sig := <-sigCh:
				log.Info("shutting down", zap.String("signal", sig.String()))
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := bootstrap.Fiber.ShutdownWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("shutdown: %w", err)
				}
				return nil
			}
		},
	}
}
