package metadata

import (
	"fmt"

	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/pkg/episode"
)

// AddDelayedItem persists an item whose delay countdown has not yet
// expired. An existing row with the same title is replaced.
func (s *Store) AddDelayedItem(item feed.Item) error {
	_, err := s.db.Exec(`
		INSERT INTO delayed_item (title, source, url, type, priority, quality, delay, size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (title) DO UPDATE SET
			source = excluded.source, url = excluded.url, type = excluded.type,
			priority = excluded.priority, quality = excluded.quality,
			delay = excluded.delay, size = excluded.size`,
		item.Title, item.SourceID, item.URL, item.Type, string(item.Priority),
		item.Quality.String(), item.Delay, item.Size,
	)
	if err != nil {
		return fmt.Errorf("add delayed item %q: %w", item.Title, mapSQLiteError(err))
	}
	return nil
}

// DeleteDelayedItem removes the row matching the item's title.
func (s *Store) DeleteDelayedItem(item feed.Item) error {
	if _, err := s.db.Exec(`DELETE FROM delayed_item WHERE title = ?`, item.Title); err != nil {
		return fmt.Errorf("delete delayed item %q: %w", item.Title, mapSQLiteError(err))
	}
	return nil
}

// GetDelayedItems returns every persisted delayed item.
func (s *Store) GetDelayedItems() ([]feed.Item, error) {
	return s.queryDelayed(`SELECT title, source, url, type, priority, quality, delay, size
		FROM delayed_item ORDER BY title`)
}

// GetActionableDelayedItems returns the rows whose countdown has
// expired (delay < 1); they are scheduled ahead of fresh feed items.
func (s *Store) GetActionableDelayedItems() ([]feed.Item, error) {
	return s.queryDelayed(`SELECT title, source, url, type, priority, quality, delay, size
		FROM delayed_item WHERE delay < 1 ORDER BY title`)
}

// DeleteStaleDelayedItems drops every actionable row; the scheduler
// calls this after folding them into the run.
func (s *Store) DeleteStaleDelayedItems() error {
	if _, err := s.db.Exec(`DELETE FROM delayed_item WHERE delay < 1`); err != nil {
		return fmt.Errorf("delete stale delayed items: %w", mapSQLiteError(err))
	}
	return nil
}

// ReduceItemDelay decrements every pending countdown. It is the last
// metadata mutation of a scheduler run.
func (s *Store) ReduceItemDelay() error {
	if _, err := s.db.Exec(`UPDATE delayed_item SET delay = delay - 1 WHERE delay > 0`); err != nil {
		return fmt.Errorf("reduce item delay: %w", mapSQLiteError(err))
	}
	return nil
}

func (s *Store) queryDelayed(query string) ([]feed.Item, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query delayed items: %w", mapSQLiteError(err))
	}
	defer rows.Close()

	var items []feed.Item
	for rows.Next() {
		var item feed.Item
		var priority, quality string
		if err := rows.Scan(&item.Title, &item.SourceID, &item.URL, &item.Type,
			&priority, &quality, &item.Delay, &item.Size); err != nil {
			return nil, fmt.Errorf("scan delayed item: %w", err)
		}
		item.Priority = feed.Priority(priority)
		item.Quality, _ = episode.ParseQuality(quality)
		items = append(items, item)
	}
	return items, rows.Err()
}
