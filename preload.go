package fontdata

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/go/fontdata/internal/logging"
)

// Preload loads every Path resource in ids concurrently, bounded by the
// store's preload concurrency. It returns the first error encountered.
//
// Preloaded bytes are kept alive only by the recency cache, so preloading
// more resources than its capacity keeps just the most recent ones.
// URL resources are accepted only if they are already resident.
func (s *Store) Preload(ctx context.Context, ids ...ResourceID) error {
	for _, id := range ids {
		if id.Kind() == KindPath {
			continue
		}
		if _, ok := s.Lookup(id); !ok {
			return invalidInput(nil, "only path resources can be preloaded", "resource", id.String())
		}
	}

	logger := s.logger.WithOperation(logging.OpPreload)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.preloadConcurrency)

	for _, id := range ids {
		if id.Kind() != KindPath {
			continue
		}
		g.Go(func() error {
			_, err := s.GetOrLoad(gctx, id)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn(ctx, "font data preload failed",
			"count", len(ids),
			"error", err.Error())
		return err
	}

	logger.Debug(ctx, "font data preloaded",
		"count", len(ids),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
