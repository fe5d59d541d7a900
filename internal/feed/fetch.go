package feed

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// FetchAll polls every adapter concurrently and returns their items
// concatenated in the order the adapters were given, so the
// scheduler's source-configured ordering is preserved. A failing feed
// is logged and contributes nothing; it never aborts the others.
func FetchAll(ctx context.Context, adapters []Adapter, log *slog.Logger) []Item {
	results := make([][]Item, len(adapters))

	g, ctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			items, err := adapter.Items(ctx)
			if err != nil {
				log.Warn("feed fetch failed", "source", adapter.SourceID(), "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var all []Item
	for _, items := range results {
		all = append(all, items...)
	}
	return all
}
