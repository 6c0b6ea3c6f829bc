// Package crawler walks a portal's result pages one at a time and decides when to stop.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/pauljones0/pl-jobs-scraper/internal/browser"
	"github.com/pauljones0/pl-jobs-scraper/internal/metrics"
	"github.com/pauljones0/pl-jobs-scraper/internal/models"
	"github.com/pauljones0/pl-jobs-scraper/internal/scraper"
)

var (
	ErrNavigation = errors.New("navigation failed")
	ErrConsent    = errors.New("consent interstitial not dismissed")
	ErrExtraction = errors.New("page extraction failed")
)

// State is a step of the crawl state machine.
type State int

const (
	Start State = iota
	FetchingPage
	ExtractingPage
	Accumulating
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case FetchingPage:
		return "fetching_page"
	case ExtractingPage:
		return "extracting_page"
	case Accumulating:
		return "accumulating"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StopReason says why a crawl reached Done.
type StopReason string

const (
	StopEmptyPage     StopReason = "empty_page"
	StopLastPage      StopReason = "last_page"
	StopHighWaterMark StopReason = "high_water_mark"
)

// Extractor parses one rendered page.
type Extractor interface {
	Extract(content string, scrapedAt time.Time) ([]models.Offer, error)
}

// Options holds the crawl pacing.
type Options struct {
	ConsentTimeout time.Duration
	SettleMin      time.Duration // pause after each navigation before reading the page
	SettleMax      time.Duration
	PageDelayMin   time.Duration // pause between pages
	PageDelayMax   time.Duration
}

// Result is the outcome of a finished crawl. Offers are sorted by DatePosted, newest first.
type Result struct {
	Offers     []models.Offer
	Pages      int
	MaxPage    int
	StopReason StopReason
}

type Crawler struct {
	portal    scraper.Portal
	query     scraper.Query
	extractor Extractor
	opts      Options
	logger    *slog.Logger
	metrics   *metrics.Metrics
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Crawler)

// WithSleep replaces the pause implementation.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Crawler) { c.sleep = fn }
}

// WithMetrics records page and stop counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

func New(portal scraper.Portal, query scraper.Query, extractor Extractor, opts Options, logger *slog.Logger, options ...Option) *Crawler {
	c := &Crawler{
		portal:    portal,
		query:     query,
		extractor: extractor,
		opts:      opts,
		logger:    logger,
		sleep:     sleepContext,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Crawl fetches pages through session until a stop rule fires. highWater is the latest
// scrape instant of the previous run; a zero value disables the date-based stop.
// On failure the partial result is discarded.
func (c *Crawler) Crawl(ctx context.Context, session browser.Session, highWater, scrapedAt time.Time) (*Result, error) {
	var (
		state      = Start
		page       = 1
		maxPage    int
		content    string
		pageOffers []models.Offer
		all        []models.Offer
		reason     StopReason
		err        error
	)

	for {
		switch state {
		case Start:
			c.logger.Info("Crawl started", "high_water_mark", highWater, "scraped_at", scrapedAt)
			state = FetchingPage

		case FetchingPage:
			content, err = c.fetch(ctx, session, page, &maxPage)
			if err != nil {
				state = Failed
				continue
			}
			state = ExtractingPage

		case ExtractingPage:
			pageOffers, err = c.extractor.Extract(content, scrapedAt)
			if err != nil {
				err = fmt.Errorf("%w: page %d: %v", ErrExtraction, page, err)
				state = Failed
				continue
			}
			c.metrics.PageFetched(c.portal.Name, len(pageOffers))
			state = Accumulating

		case Accumulating:
			all = append(all, pageOffers...)
			sortNewestFirst(all)
			c.logger.Info("Page scraped", "page", page, "max_page", maxPage, "offers", len(pageOffers), "total", len(all))

			var stop bool
			if reason, stop = stopRule(page, maxPage, pageOffers, highWater); stop {
				state = Done
				continue
			}

			page++
			if err = c.pause(ctx, c.opts.PageDelayMin, c.opts.PageDelayMax); err != nil {
				state = Failed
				continue
			}
			state = FetchingPage

		case Done:
			c.logger.Info("Crawl stopped", "reason", reason, "pages", page, "offers", len(all))
			c.metrics.CrawlStopped(c.portal.Name, string(reason))
			return &Result{Offers: all, Pages: page, MaxPage: maxPage, StopReason: reason}, nil

		case Failed:
			c.logger.Error("Crawl failed", "page", page, "error", err)
			c.metrics.CrawlStopped(c.portal.Name, "failed")
			return nil, err
		}
	}
}

// fetch renders page and returns its settled content. Page 1 also dismisses the
// consent banner and fixes maxPage.
func (c *Crawler) fetch(ctx context.Context, session browser.Session, page int, maxPage *int) (string, error) {
	url := c.portal.PageURL(c.query, page)
	c.logger.Info("Fetching page", "page", page, "url", url)

	if _, err := session.Navigate(ctx, url); err != nil {
		return "", fmt.Errorf("%w: page %d (%s): %v", ErrNavigation, page, url, err)
	}
	if page == 1 {
		if err := c.dismissConsent(ctx, session); err != nil {
			return "", fmt.Errorf("page 1 (%s): %w", url, err)
		}
	}
	if err := c.pause(ctx, c.opts.SettleMin, c.opts.SettleMax); err != nil {
		return "", err
	}

	content, err := session.Content(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: page %d (%s): %v", ErrNavigation, page, url, err)
	}

	if page == 1 {
		n, err := scraper.MaxPage(content, c.portal.Selectors.Pagination)
		if err != nil {
			return "", fmt.Errorf("page 1 (%s): %w", url, err)
		}
		*maxPage = n
		c.logger.Info("Total pages to scrape", "max_page", n)
	}
	return content, nil
}

func (c *Crawler) dismissConsent(ctx context.Context, session browser.Session) error {
	selector := c.portal.Selectors.Consent
	if selector == "" {
		return nil
	}
	found, err := session.FindControl(ctx, selector, c.opts.ConsentTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConsent, err)
	}
	if !found {
		return fmt.Errorf("%w: %s not found within %s", ErrConsent, selector, c.opts.ConsentTimeout)
	}
	if err := session.Click(ctx, selector); err != nil {
		return fmt.Errorf("%w: %v", ErrConsent, err)
	}
	c.logger.Info("Cookie consent dismissed")
	return nil
}

// stopRule applies the stop conditions in precedence order.
func stopRule(page, maxPage int, pageOffers []models.Offer, highWater time.Time) (StopReason, bool) {
	if len(pageOffers) == 0 {
		return StopEmptyPage, true
	}
	if page >= maxPage {
		return StopLastPage, true
	}
	if newest, ok := newestPosted(pageOffers); ok && !highWater.IsZero() && newest.Before(highWater) {
		return StopHighWaterMark, true
	}
	return "", false
}

func newestPosted(offers []models.Offer) (time.Time, bool) {
	var newest time.Time
	for _, o := range offers {
		if o.DatePosted.After(newest) {
			newest = o.DatePosted
		}
	}
	return newest, !newest.IsZero()
}

// sortNewestFirst orders offers by DatePosted descending with unknown dates last.
func sortNewestFirst(offers []models.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i].DatePosted, offers[j].DatePosted
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
}

// pause sleeps a whole number of seconds drawn uniformly from [from, to].
func (c *Crawler) pause(ctx context.Context, from, to time.Duration) error {
	return c.sleep(ctx, randomSeconds(from, to))
}

func randomSeconds(from, to time.Duration) time.Duration {
	lo, hi := int(from/time.Second), int(to/time.Second)
	if hi <= lo {
		return time.Duration(lo) * time.Second
	}
	return time.Duration(lo+rand.IntN(hi-lo+1)) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
