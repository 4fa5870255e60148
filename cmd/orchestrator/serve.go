package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/af-corp/chat-orchestrator/internal/conversation"
	"github.com/af-corp/chat-orchestrator/internal/gateway"
	"github.com/af-corp/chat-orchestrator/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var storeBackend string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config()
			if storeBackend != "" {
				cfg.Store.Backend = storeBackend
			}
			return runServer(cmd.Context(), ctx)
		},
	}
	cmd.Flags().StringVar(&storeBackend, "store", "", "Override the conversation store backend (postgres or memory)")
	return cmd
}

func runServer(parent context.Context, cc *commandContext) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := cc.config()
	logger := cc.logger

	st, closeStore, err := openStore(parent, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	c := buildCore(parent, cc.loader, logger)
	orch := c.orchestrator(st, cfg.Routing, metrics, logger)
	conversations := conversation.NewService(st, orch, metrics, logger)
	handler := gateway.NewHandler(orch, conversations, c.profiles, c.registry, version, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(gateway.RequestID)
	r.Use(gateway.AccessLog(logger, metrics))
	handler.Mount(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var metricsSrv *http.Server
	if cfg.Telemetry.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Telemetry.MetricsPort),
			Handler: mux,
		}
		go func() {
			logger.Info("metrics server starting", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("orchestrator starting", "addr", addr, "version", version, "store", cfg.Store.Backend)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case <-parent.Done():
		logger.Info("context cancelled, shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("orchestrator stopped")
	return nil
}
