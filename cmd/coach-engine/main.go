package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casequest/coach-engine/internal/api"
	"github.com/casequest/coach-engine/internal/catalog"
	"github.com/casequest/coach-engine/internal/cleanup"
	"github.com/casequest/coach-engine/internal/config"
	"github.com/casequest/coach-engine/internal/gateway"
	"github.com/casequest/coach-engine/internal/session"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting coach-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"model", cfg.Gemini.Model,
	)

	// Load scenario catalog
	var cat *catalog.Catalog
	if cfg.Catalog.Dir != "" {
		cat, err = catalog.LoadFromDir(cfg.Catalog.Dir)
	} else {
		cat, err = catalog.LoadDefault()
	}
	if err != nil {
		slog.Error("failed to load scenario catalog", "error", err)
		os.Exit(1)
	}

	// Coaching gateway. The mock keeps local development usable
	// without a credential; the real gateway defers credential
	// problems to the first call.
	var gw gateway.CoachGateway
	if cfg.Gemini.UseMock {
		slog.Warn("using mock coaching gateway")
		gw = gateway.NewMock()
	} else {
		gw = gateway.NewGeminiGateway(cfg.Gemini)
	}

	// Session manager and cleanup worker
	manager := session.NewManager(gw, cfg.Cleanup.SessionTTL)
	cleaner := cleanup.NewCleaner(manager, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, manager, cat)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("coach-engine stopped")
}
