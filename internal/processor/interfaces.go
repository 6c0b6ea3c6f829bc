package processor

import (
	"context"

	"github.com/pauljones0/pl-jobs-scraper/internal/browser"
	"github.com/pauljones0/pl-jobs-scraper/internal/models"
)

// OfferStore abstracts the persisted full offer set of one portal.
type OfferStore interface {
	// Load returns the stored offers; an empty store is (nil, nil).
	Load(ctx context.Context) ([]models.Offer, error)
	// Save replaces the stored set.
	Save(ctx context.Context, offers []models.Offer) error
}

// Artifact is the per-run new-offers file handed to the notifier.
type Artifact interface {
	Save(ctx context.Context, offers []models.Offer) error
	Path() string
}

// Notifier abstracts the notification layer.
type Notifier interface {
	Send(ctx context.Context, subject, body, attachmentPath string) error
}

// Locker abstracts the run lock.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Renderer abstracts the browser backend.
type Renderer interface {
	Open(ctx context.Context) (browser.Session, error)
}
