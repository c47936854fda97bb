package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/paysplit/internal/config"
	"github.com/iwvelando/paysplit/internal/server"
	"github.com/iwvelando/paysplit/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	var serverConfigPath, address, maxUpload string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the allocation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Address = address
			}
			if maxUpload != "" {
				size, err := server.ParseSize(maxUpload)
				if err != nil {
					return err
				}
				cfg.SetUploadSizeBytes(size)
			}
			if cfg.Logging != (config.LoggingConfig{}) {
				logger, err := initializeLogger(cfg.Logging, a.logLevel)
				if err != nil {
					return fmt.Errorf("failed to initialize server logger: %w", err)
				}
				a.logger = logger
			}
			return a.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	cmd.Flags().StringVar(&maxUpload, "max-upload-size", "", "upload size limit override, e.g. 512K or 4M")
	return cmd
}

func (a *app) serve(ctx context.Context, cfg *server.Config) error {
	const op = "cmd.serve"

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer a.closeHistory(store, op)

	readTimeout, writeTimeout := cfg.Timeouts()
	srv := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(a.logger, cfg.UploadSizeBytes(), version,
			server.WithConfiguration(*a.conf),
			server.WithHistory(store, cfg.SaveHistory),
		),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			zap.String("op", op),
			zap.String("address", cfg.Address),
			zap.Int64("max_upload_bytes", cfg.UploadSizeBytes()),
			zap.Bool("save_history", cfg.SaveHistory),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received", zap.String("op", op))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
