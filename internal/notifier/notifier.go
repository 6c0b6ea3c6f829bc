// Package notifier delivers the new-offers summary of a run. Delivery is best-effort.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/pl-jobs-scraper/internal/models"
)

const (
	Email   = "email"
	Discord = "discord"
	None    = "none"

	maxListedOffers = 25
)

// Sender delivers one message, optionally with a file attached.
type Sender interface {
	Send(ctx context.Context, subject, body, attachmentPath string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Send(context.Context, string, string, string) error { return nil }

// Limited spaces out sends of a notifier shared by concurrent runs.
type Limited struct {
	next    Sender
	limiter *rate.Limiter
}

func NewLimited(next Sender, every time.Duration) *Limited {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (l *Limited) Send(ctx context.Context, subject, body, attachmentPath string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return l.next.Send(ctx, subject, body, attachmentPath)
}

// Summary describes the search a notification is about.
type Summary struct {
	Portal   string
	Keyword  string
	City     string
	Distance int
}

// Subject formats the message subject, e.g. "New offers for golang! [15-03-2024] pracuj_pl".
func Subject(s Summary, day time.Time) string {
	return fmt.Sprintf("New offers for %s! [%s] %s", s.Keyword, day.Format("02-01-2006"), s.Portal)
}

// Body formats the message text followed by up to maxListedOffers offers.
func Body(s Summary, offers []models.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d new offers for %s in %s within %d km", len(offers), s.Keyword, s.City, s.Distance)
	if len(offers) == 0 {
		return b.String()
	}
	b.WriteString("\n")

	for i, o := range offers {
		if i == maxListedOffers {
			fmt.Fprintf(&b, "\n...and %d more, see the attached file.\n", len(offers)-maxListedOffers)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(o.Title)
		for _, part := range []string{o.Company, o.Location, o.Salary} {
			if part != "" {
				b.WriteString(" | ")
				b.WriteString(part)
			}
		}
		if o.JobLink != "" {
			b.WriteString("\n  ")
			b.WriteString(o.JobLink)
		}
	}
	return b.String()
}
