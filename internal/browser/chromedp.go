package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromedpRenderer drives a headless Chrome through the DevTools protocol.
type ChromedpRenderer struct {
	opts Options
}

func NewChromedp(opts Options) *ChromedpRenderer {
	return &ChromedpRenderer{opts: opts}
}

// Open starts a browser process with a single tab. The tab lives until Close.
func (r *ChromedpRenderer) Open(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.WindowSize(1920, 1080),
	)
	if r.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Run with no actions launches the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &chromedpSession{
		tabCtx:     tabCtx,
		cancel:     func() { cancelTab(); cancelAlloc() },
		navTimeout: r.opts.NavigationTimeout,
	}, nil
}

type chromedpSession struct {
	tabCtx     context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// bound derives a tab context that also ends when ctx does.
func (s *chromedpSession) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		prev := cancel
		cancel = func() { cancelTimeout(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() { stop(); cancel() }
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) (string, error) {
	runCtx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	return html, nil
}

func (s *chromedpSession) FindControl(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	runCtx, cancel := s.bound(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, fmt.Errorf("wait for %s: %w", selector, err)
}

func (s *chromedpSession) Click(ctx context.Context, selector string) error {
	runCtx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (s *chromedpSession) Content(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return html, nil
}

func (s *chromedpSession) Close() error {
	if err := chromedp.Cancel(s.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
		s.cancel()
		return fmt.Errorf("close chrome: %w", err)
	}
	s.cancel()
	return nil
}
