package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pauljones0/pl-jobs-scraper/internal/config"
	"github.com/pauljones0/pl-jobs-scraper/internal/logging"
	"github.com/pauljones0/pl-jobs-scraper/internal/metrics"
	"github.com/pauljones0/pl-jobs-scraper/internal/processor"
)

func main() {
	logger := logging.NewProcessLogger(os.Getenv("LOG_FORMAT"))
	logger.Info("Starting job offer scraper server...")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	m := metrics.New()
	p, cleanup, err := processor.Build(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("Critical error initializing processor", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := NewServer(ctx, p, m, logger)

	var scheduler *cron.Cron
	if cfg.Schedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Schedule, srv.RunAll); err != nil {
			logger.Error("Invalid SCHEDULE", "schedule", cfg.Schedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("Cron started", "schedule", cfg.Schedule)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		logger.Info("Received signal, shutting down gracefully...", "signal", sig)

		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		cancelRuns()
	}()

	logger.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	srv.Wait()
	logger.Info("Server stopped.")
}
