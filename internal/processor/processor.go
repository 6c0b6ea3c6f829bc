package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pauljones0/pl-jobs-scraper/internal/config"
	"github.com/pauljones0/pl-jobs-scraper/internal/crawler"
	"github.com/pauljones0/pl-jobs-scraper/internal/dates"
	"github.com/pauljones0/pl-jobs-scraper/internal/logging"
	"github.com/pauljones0/pl-jobs-scraper/internal/metrics"
	"github.com/pauljones0/pl-jobs-scraper/internal/models"
	"github.com/pauljones0/pl-jobs-scraper/internal/notifier"
	"github.com/pauljones0/pl-jobs-scraper/internal/reconcile"
	"github.com/pauljones0/pl-jobs-scraper/internal/scraper"
)

// Processor runs the scrape-and-reconcile pipeline for one portal at a time.
type Processor interface {
	Run(ctx context.Context, portal string) (*Report, error)
	Portals() []string
}

// Deps are the collaborators of a RunProcessor. Stores and Artifacts are called once per run.
type Deps struct {
	Portals   map[string]scraper.Portal
	Months    dates.MonthMapping
	Validator models.Validator
	Renderer  Renderer
	Stores    func(portal string) OfferStore
	Artifacts func(portal string) Artifact
	Notifier  Notifier
	Locker    Locker
	Metrics   *metrics.Metrics

	// CrawlerOptions are passed to every crawler, e.g. crawler.WithSleep in tests.
	CrawlerOptions []crawler.Option
	Now            func() time.Time
}

// Report summarises a successful run.
type Report struct {
	Portal     string
	Pages      int
	StopReason crawler.StopReason
	Scraped    int
	Stored     int
	New        int
	ColdStart  bool
	Notified   bool
	Duration   time.Duration
}

type RunProcessor struct {
	deps   Deps
	config *config.Config
	logger *slog.Logger
	order  []string
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) *RunProcessor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.Nop{}
	}
	order := make([]string, 0, len(cfg.Portals))
	for _, name := range cfg.Portals {
		if _, ok := deps.Portals[name]; ok {
			order = append(order, name)
		}
	}
	return &RunProcessor{deps: deps, config: cfg, logger: logger, order: order}
}

// Portals lists the configured portals in configuration order.
func (p *RunProcessor) Portals() []string {
	return p.order
}

func (p *RunProcessor) Run(ctx context.Context, name string) (report *Report, err error) {
	portal, ok := p.deps.Portals[name]
	if !ok {
		return nil, fmt.Errorf("unknown portal %q", name)
	}

	start := p.deps.Now()
	scrapedAt := start.Truncate(time.Second)

	logger, closeLog := p.openRunLog(name, start)
	defer closeLog()
	defer func() {
		p.deps.Metrics.RunFinished(name, time.Since(start), err, reportCount(report, true), reportCount(report, false))
		if err != nil {
			logger.Error("Run failed", "error", err)
		}
	}()

	release, err := p.deps.Locker.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	defer release()

	store := p.deps.Stores(name)
	previous, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	highWater := models.LatestScrape(previous)
	logger.Info("Loaded stored offers", "count", len(previous), "high_water_mark", highWater)

	session, err := p.deps.Renderer.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open renderer: %v", crawler.ErrNavigation, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("Failed to close renderer session", "error", cerr)
		}
	}()

	query := scraper.Query{Keyword: p.config.Keyword, City: p.config.City, Distance: p.config.Distance}
	extractor := scraper.NewExtractor(portal, p.deps.Months, p.deps.Validator, logger)
	options := append([]crawler.Option{crawler.WithMetrics(p.deps.Metrics)}, p.deps.CrawlerOptions...)
	c := crawler.New(portal, query, extractor, crawler.Options{
		ConsentTimeout: p.config.ConsentTimeout,
		SettleMin:      p.config.PageSettleMin,
		SettleMax:      p.config.PageSettleMax,
		PageDelayMin:   p.config.PageDelayMin,
		PageDelayMax:   p.config.PageDelayMax,
	}, logger, options...)

	result, err := c.Crawl(ctx, session, highWater, scrapedAt)
	if err != nil {
		return nil, err
	}

	coldStart := len(previous) == 0
	updated, novel := reconcile.Reconcile(previous, result.Offers)
	if n := reconcile.KeylessCount(result.Offers); n > 0 {
		logger.Warn("Offers without a job link are always treated as new", "count", n)
	}
	logger.Info("Reconciled offers", "scraped", len(result.Offers), "stored", len(updated), "new", len(novel), "cold_start", coldStart)

	if len(result.Offers) > 0 {
		if err := store.Save(ctx, updated); err != nil {
			return nil, fmt.Errorf("save store: %w", err)
		}
	}

	artifact := p.deps.Artifacts(name)
	if err := artifact.Save(ctx, novel); err != nil {
		return nil, fmt.Errorf("save new offers: %w", err)
	}

	report = &Report{
		Portal:     name,
		Pages:      result.Pages,
		StopReason: result.StopReason,
		Scraped:    len(result.Offers),
		Stored:     len(updated),
		New:        len(novel),
		ColdStart:  coldStart,
	}
	report.Notified = p.notify(ctx, logger, name, novel, coldStart, artifact.Path(), scrapedAt)
	report.Duration = time.Since(start)

	logger.Info("Run finished", "pages", report.Pages, "stop_reason", report.StopReason, "new", report.New, "duration", report.Duration)
	return report, nil
}

// notify is best-effort: a failure is logged and the run still succeeds.
func (p *RunProcessor) notify(ctx context.Context, logger *slog.Logger, portal string, novel []models.Offer, coldStart bool, attachment string, day time.Time) bool {
	if len(novel) == 0 {
		logger.Info("No new offers, skipping notification")
		return false
	}
	if coldStart && !p.config.NotifyOnFirstRun {
		logger.Info("First run for portal, skipping notification", "new", len(novel))
		return false
	}

	summary := notifier.Summary{Portal: portal, Keyword: p.config.Keyword, City: p.config.City, Distance: p.config.Distance}
	err := p.deps.Notifier.Send(ctx, notifier.Subject(summary, day), notifier.Body(summary, novel), attachment)
	p.deps.Metrics.Notified(portal, err)
	if err != nil {
		logger.Error("Error sending notification", "error", err)
		return false
	}
	logger.Info("Notification sent", "new", len(novel))
	return true
}

// openRunLog prunes old logs and opens this run's file. Failures fall back to the process logger.
func (p *RunProcessor) openRunLog(portal string, now time.Time) (*slog.Logger, func()) {
	logger := p.logger.With("portal", portal)
	if p.config.LogDir == "" {
		return logger, func() {}
	}

	retention := time.Duration(p.config.LogRetentionDays) * 24 * time.Hour
	if removed, err := logging.Prune(p.config.LogDir, retention, now); err != nil {
		logger.Warn("Failed to prune old run logs", "error", err)
	} else if removed > 0 {
		logger.Info("Pruned old run logs", "count", removed)
	}

	runLog, err := logging.OpenRunLog(p.config.LogDir, portal, p.logger.Handler(), now)
	if err != nil {
		logger.Warn("Failed to open run log, using process logger", "error", err)
		return logger, func() {}
	}
	return runLog.Logger, func() {
		if err := runLog.Close(); err != nil {
			logger.Warn("Failed to close run log", "error", err)
		}
	}
}

func reportCount(r *Report, stored bool) int {
	if r == nil {
		return 0
	}
	if stored {
		return r.Stored
	}
	return r.New
}
