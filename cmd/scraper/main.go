package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pauljones0/pl-jobs-scraper/internal/config"
	"github.com/pauljones0/pl-jobs-scraper/internal/logging"
	"github.com/pauljones0/pl-jobs-scraper/internal/processor"
)

func main() {
	logger := logging.NewProcessLogger(os.Getenv("LOG_FORMAT"))
	logger.Info("Starting job offer scraper...")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, cleanup, err := processor.Build(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("Critical error initializing processor", "error", err)
		os.Exit(1)
	}

	reports, err := processor.RunAll(ctx, p, logger)
	cleanup()
	for _, r := range reports {
		if r != nil {
			logger.Info("Portal finished", "portal", r.Portal, "pages", r.Pages, "stored", r.Stored, "new", r.New, "notified", r.Notified)
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Interrupted")
		}
		logger.Error("One or more runs failed", "error", err)
		os.Exit(1)
	}
	logger.Info("All runs finished.")
}
