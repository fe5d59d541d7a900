package metadata

import (
	"fmt"

	"github.com/vmunix/mediarover/pkg/episode"
)

// seriesID returns the row id for the sanitized series name, creating
// the series lazily on first appearance.
func seriesID(q querier, ep episode.Episode) (int64, error) {
	key := ep.SeriesKey()

	var id int64
	err := q.QueryRow(`SELECT id FROM series WHERE sanitized_name = ?`, key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if mapSQLiteError(err) != ErrNotFound {
		return 0, fmt.Errorf("lookup series %q: %w", key, mapSQLiteError(err))
	}

	result, err := q.Exec(`INSERT INTO series (name, sanitized_name) VALUES (?, ?)`, ep.Series, key)
	if err != nil {
		return 0, fmt.Errorf("insert series %q: %w", key, mapSQLiteError(err))
	}
	return result.LastInsertId()
}

// AddEpisode upserts the quality record for every part of the episode.
// The quality column is overwritten on conflict.
func (s *Store) AddEpisode(ep episode.Episode) error {
	for _, part := range ep.Parts() {
		id, err := seriesID(s.db, part)
		if err != nil {
			return err
		}

		if part.Kind == episode.KindDaily {
			_, err = s.db.Exec(`
				INSERT INTO daily_episode (series, year, month, day, quality)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (series, year, month, day) DO UPDATE SET quality = excluded.quality`,
				id, part.Year, part.Month, part.Day, part.Quality.String(),
			)
		} else {
			_, err = s.db.Exec(`
				INSERT INTO single_episode (series, season, episode, quality)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (series, season, episode) DO UPDATE SET quality = excluded.quality`,
				id, part.Season, part.Number, part.Quality.String(),
			)
		}
		if err != nil {
			return fmt.Errorf("upsert episode %s: %w", part.Key(), mapSQLiteError(err))
		}
	}
	return nil
}

// GetEpisode returns the recorded quality for a single or daily
// episode, or ErrNotFound. Multi-part episodes have no row of their
// own; query their parts.
func (s *Store) GetEpisode(ep episode.Episode) (episode.Quality, error) {
	if ep.Kind == episode.KindMulti {
		return episode.QualityUnknown, fmt.Errorf("get episode %s: %w", ep.Key(), ErrNotFound)
	}

	var quality string
	var err error
	if ep.Kind == episode.KindDaily {
		err = s.db.QueryRow(`
			SELECT e.quality FROM daily_episode e
			JOIN series s ON s.id = e.series
			WHERE s.sanitized_name = ? AND e.year = ? AND e.month = ? AND e.day = ?`,
			ep.SeriesKey(), ep.Year, ep.Month, ep.Day,
		).Scan(&quality)
	} else {
		err = s.db.QueryRow(`
			SELECT e.quality FROM single_episode e
			JOIN series s ON s.id = e.series
			WHERE s.sanitized_name = ? AND e.season = ? AND e.episode = ?`,
			ep.SeriesKey(), ep.Season, ep.Number,
		).Scan(&quality)
	}
	if err != nil {
		return episode.QualityUnknown, fmt.Errorf("get episode %s: %w", ep.Key(), mapSQLiteError(err))
	}

	band, parseErr := episode.ParseQuality(quality)
	if parseErr != nil {
		return episode.QualityUnknown, fmt.Errorf("get episode %s: %w", ep.Key(), parseErr)
	}
	return band, nil
}
