package metadata

import (
	"fmt"
	"strings"

	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/pkg/episode"
)

// InProgress records a download handed to the queue: the sorter uses
// Source to pick the right title parser and Quality to name the
// resulting file.
type InProgress struct {
	Title   string
	Source  string
	Type    string
	Quality episode.Quality
}

// AddInProgress records a successfully enqueued item.
func (s *Store) AddInProgress(item feed.Item) error {
	_, err := s.db.Exec(`
		INSERT INTO in_progress (title, source, type, quality)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (title) DO UPDATE SET source = excluded.source, quality = excluded.quality`,
		item.Title, item.SourceID, item.Type, item.Quality.String(),
	)
	if err != nil {
		return fmt.Errorf("add in-progress %q: %w", item.Title, mapSQLiteError(err))
	}
	return nil
}

// GetInProgress fetches the in-progress record for a job title.
func (s *Store) GetInProgress(title string) (*InProgress, error) {
	row := &InProgress{}
	var quality string
	err := s.db.QueryRow(`
		SELECT title, source, type, quality FROM in_progress WHERE title = ?`, title,
	).Scan(&row.Title, &row.Source, &row.Type, &quality)
	if err != nil {
		return nil, fmt.Errorf("get in-progress %q: %w", title, mapSQLiteError(err))
	}
	row.Quality, _ = episode.ParseQuality(quality)
	return row, nil
}

// DeleteInProgress removes the given titles. Unknown titles are not an
// error.
func (s *Store) DeleteInProgress(titles ...string) error {
	if len(titles) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(titles)), ", ")
	args := make([]any, len(titles))
	for i, title := range titles {
		args[i] = title
	}
	if _, err := s.db.Exec(`DELETE FROM in_progress WHERE title IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete in-progress: %w", mapSQLiteError(err))
	}
	return nil
}

// ListInProgress returns every recorded in-progress download.
func (s *Store) ListInProgress() ([]InProgress, error) {
	rows, err := s.db.Query(`SELECT title, source, type, quality FROM in_progress ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list in-progress: %w", mapSQLiteError(err))
	}
	defer rows.Close()

	var all []InProgress
	for rows.Next() {
		var row InProgress
		var quality string
		if err := rows.Scan(&row.Title, &row.Source, &row.Type, &quality); err != nil {
			return nil, fmt.Errorf("scan in-progress: %w", err)
		}
		row.Quality, _ = episode.ParseQuality(quality)
		all = append(all, row)
	}
	return all, rows.Err()
}
