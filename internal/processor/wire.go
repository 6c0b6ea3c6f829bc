package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pauljones0/pl-jobs-scraper/internal/browser"
	"github.com/pauljones0/pl-jobs-scraper/internal/config"
	"github.com/pauljones0/pl-jobs-scraper/internal/dates"
	"github.com/pauljones0/pl-jobs-scraper/internal/lock"
	"github.com/pauljones0/pl-jobs-scraper/internal/metrics"
	"github.com/pauljones0/pl-jobs-scraper/internal/notifier"
	"github.com/pauljones0/pl-jobs-scraper/internal/scraper"
	"github.com/pauljones0/pl-jobs-scraper/internal/storage"
	"github.com/pauljones0/pl-jobs-scraper/internal/validator"
)

// notifyInterval spaces out messages of portals finishing at the same time.
const notifyInterval = 2 * time.Second

// Build assembles a RunProcessor from cfg. The returned cleanup releases shared clients.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*RunProcessor, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Cleanup failed", "error", err)
			}
		}
	}
	fail := func(err error) (*RunProcessor, func(), error) {
		cleanup()
		return nil, nil, err
	}

	selectors := scraper.LoadConfig(logger, cfg.SelectorsConfigPath)
	portals := make(map[string]scraper.Portal, len(cfg.Portals))
	for _, name := range cfg.Portals {
		portal, err := scraper.NewPortal(name, selectors)
		if err != nil {
			return fail(err)
		}
		portals[name] = portal
	}

	months := dates.DefaultMonthMapping()
	if cfg.MonthMappingPath != "" {
		loaded, err := dates.LoadMonthMapping(cfg.MonthMappingPath)
		if err != nil {
			return fail(fmt.Errorf("month mapping: %w", err))
		}
		months = loaded
	}

	renderer, err := browser.New(cfg.Renderer, browser.Options{
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
	})
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fail(fmt.Errorf("create data dir %q: %w", cfg.DataDir, err))
	}

	var stores func(string) OfferStore
	switch cfg.Store {
	case storage.BackendFirestore:
		client, err := storage.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, client.Close)
		stores = func(portal string) OfferStore { return storage.NewFirestore(client, portal) }
	default:
		stores = func(portal string) OfferStore {
			return storage.NewXLSX(filepath.Join(cfg.DataDir, "offers_"+portal+".xlsx"))
		}
	}
	artifacts := func(portal string) Artifact {
		return storage.NewXLSX(filepath.Join(cfg.DataDir, "new_offers_"+portal+".xlsx"))
	}

	var sender notifier.Sender
	switch cfg.Notifier {
	case notifier.Email:
		sender = notifier.NewEmail(notifier.EmailConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Sender:    cfg.SenderEmail,
			Password:  cfg.SenderPassword,
			Recipient: cfg.RecipientEmail,
			Retries:   3,
		})
	case notifier.Discord:
		sender = notifier.NewDiscord(cfg.DiscordWebhookURL)
	default:
		sender = notifier.Nop{}
	}

	var locker Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, client.Close)
		locker = lock.NewRedis(client, cfg.LockTTL, logger)
	}

	p := New(cfg, Deps{
		Portals:   portals,
		Months:    months,
		Validator: validator.New(),
		Renderer:  renderer,
		Stores:    stores,
		Artifacts: artifacts,
		Notifier:  notifier.NewLimited(sender, notifyInterval),
		Locker:    locker,
		Metrics:   m,
	}, logger)
	if len(p.Portals()) == 0 {
		return fail(errors.New("no portals configured"))
	}

	logger.Info("Processor ready", "portals", p.Portals(), "renderer", cfg.Renderer, "store", cfg.Store, "notifier", cfg.Notifier)
	return p, cleanup, nil
}
