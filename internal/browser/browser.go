// Package browser renders portal pages in a real browser so the crawler sees post-JavaScript markup.
package browser

import (
	"context"
	"fmt"
	"time"
)

// Session is one browser tab owned by a single crawl run.
type Session interface {
	// Navigate loads url and returns the rendered document.
	Navigate(ctx context.Context, url string) (string, error)
	// FindControl waits up to timeout for selector to become visible. A missing control is not an error.
	FindControl(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// Content returns the current rendered document.
	Content(ctx context.Context) (string, error)
	Close() error
}

// Renderer opens browser sessions.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

const (
	Chromedp   = "chromedp"
	Playwright = "playwright"
)

// Options configures either backend.
type Options struct {
	Headless          bool
	NavigationTimeout time.Duration
	UserAgent         string
}

// New returns the renderer for backend.
func New(backend string, opts Options) (Renderer, error) {
	switch backend {
	case "", Chromedp:
		return NewChromedp(opts), nil
	case Playwright:
		return NewPlaywright(opts), nil
	}
	return nil, fmt.Errorf("unknown renderer %q", backend)
}
