package manager

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Preload loads ids concurrently (at most limit at a time; limit <= 0 means
// no limit) and returns the first failure. Models loaded before a failure
// stay loaded.
func (m *Manager) Preload(ctx context.Context, ids []string, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return m.EnsureInstance(gctx, id)
		})
	}
	return g.Wait()
}
