// Package library maintains the on-disk view of the watched TV
// filesystem: which series are watched, which episode files exist
// under each series directory, and which candidate episodes are still
// worth downloading given what is already there.
package library

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/vmunix/mediarover/pkg/episode"
)

var (
	// ErrFilesystem wraps unreadable roots and other I/O failures
	// encountered while walking the library.
	ErrFilesystem = errors.New("library: filesystem error")

	// ErrUnknownSeries is returned when a lookup names a series that is
	// not on the watch list.
	ErrUnknownSeries = errors.New("library: unknown series")
)

// File is a single episode file found on disk.
type File struct {
	Episode   episode.Episode
	Path      string
	Size      int64
	Extension string
}

// QualityLookup resolves the recorded quality of an episode already on
// disk. The metadata store implements it; a nil lookup disables the
// recorded-quality pass during scans.
type QualityLookup interface {
	GetEpisode(ep episode.Episode) (episode.Quality, error)
}

// Series is one watched series. Paths holds every directory that
// contributes episodes; a series split across multiple roots (for
// example a multi-disk layout) carries more than one.
type Series struct {
	Name    string
	Key     string
	Paths   []string
	Aliases []string

	IgnoredSeasons []int
	Archive        bool
	EpisodeLimit   int

	// DesiredQuality overrides the library-wide desired quality when
	// set. QualityUnknown means no override.
	DesiredQuality episode.Quality

	index *Index

	mu      sync.Mutex
	scanned bool
	files   []File
	newest  *episode.Episode
}

// AddPath registers a newly created series directory and invalidates
// the scan cache.
func (s *Series) AddPath(path string) {
	s.mu.Lock()
	s.Paths = append(s.Paths, path)
	s.scanned = false
	s.files = nil
	s.newest = nil
	s.mu.Unlock()
}

// MarkStale discards the cached scan so the next query re-reads disk.
func (s *Series) MarkStale() {
	s.mu.Lock()
	s.scanned = false
	s.files = nil
	s.newest = nil
	s.mu.Unlock()
}

// IgnoresSeason reports whether the given season is excluded from
// scheduling for this series.
func (s *Series) IgnoresSeason(season int) bool {
	for _, n := range s.IgnoredSeasons {
		if n == season {
			return true
		}
	}
	return false
}

// Desired returns the quality band this series is driven toward: the
// per-series override when set, otherwise the library-wide level.
func (s *Series) Desired() episode.Quality {
	if s.DesiredQuality != episode.QualityUnknown {
		return s.DesiredQuality
	}
	return s.index.quality.DesiredQuality()
}

func (s *Series) logger() *slog.Logger {
	return s.index.log.With("series", s.Name)
}
