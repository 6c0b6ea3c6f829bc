package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RunAll runs every configured portal concurrently. A failing portal does not cancel the others;
// the returned error joins all failures.
func RunAll(ctx context.Context, p Processor, logger *slog.Logger) ([]*Report, error) {
	portals := p.Portals()
	reports := make([]*Report, len(portals))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for i, name := range portals {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Panic in portal run", "portal", name, "panic", r)
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: panic: %v", name, r))
					mu.Unlock()
				}
			}()
			report, err := p.Run(ctx, name)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	g.Wait()

	return reports, errors.Join(errs...)
}
