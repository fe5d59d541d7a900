package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmunix/mediarover/pkg/episode"
)

// FindEpisodeOnDisk returns the files holding the given episode. With
// includeMultipart set, a single episode also matches multi-episode
// files that contain it as a part.
func (s *Series) FindEpisodeOnDisk(ep episode.Episode, includeMultipart bool) ([]File, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	var matches []File
	for _, f := range files {
		if f.Episode.Equal(ep) {
			matches = append(matches, f)
			continue
		}
		if !includeMultipart {
			continue
		}
		// A single matches multi files containing it as a part, and a
		// multi matches the singles holding its parts.
		switch {
		case f.Episode.Kind == episode.KindMulti && ep.Kind == episode.KindSingle:
			for _, part := range f.Episode.Parts() {
				if part.Equal(ep) {
					matches = append(matches, f)
					break
				}
			}
		case f.Episode.Kind == episode.KindSingle && ep.Kind == episode.KindMulti:
			for _, part := range ep.Parts() {
				if part.Equal(f.Episode) {
					matches = append(matches, f)
					break
				}
			}
		}
	}
	return matches, nil
}

// FilterUndesirables returns the parts of a candidate episode still
// worth having. A part is desirable when it is missing from the sample
// outright, or, in a managed library, when the candidate's quality
// moves an existing copy toward the desired band. The sample defaults
// to the episodes on disk.
func (s *Series) FilterUndesirables(ep episode.Episode, sample ...episode.Episode) ([]episode.Episode, error) {
	if len(sample) == 0 {
		var err error
		sample, err = s.Episodes()
		if err != nil {
			return nil, err
		}
	}
	byKey := make(map[string]episode.Episode, len(sample))
	for _, e := range sample {
		byKey[e.Key()] = e
	}

	managed := s.index.quality.Managed
	acceptable := make(map[episode.Quality]bool)
	for _, band := range s.index.quality.AcceptableQualities() {
		acceptable[band] = true
	}

	type match struct {
		given, current episode.Episode
	}
	var found []match
	var desirable []episode.Episode
	for _, part := range ep.Parts() {
		if current, ok := byKey[part.Key()]; ok {
			found = append(found, match{given: part, current: current})
			continue
		}
		if managed && !acceptable[part.Quality] {
			continue
		}
		desirable = append(desirable, part)
	}

	if !managed || len(found) == 0 || !acceptable[ep.Quality] {
		return desirable, nil
	}

	// Replacement pass: an existing copy is upgraded when the candidate
	// hits the desired band, or sits between the current copy and the
	// desired band.
	desired := s.Desired()
	for _, m := range found {
		switch {
		case m.current.Quality == desired:
		case m.given.Quality == desired:
			desirable = append(desirable, m.given)
		case desired == episode.QualityHigh &&
			m.current.Quality == episode.QualityLow && m.given.Quality == episode.QualityMedium:
			desirable = append(desirable, m.given)
		case desired == episode.QualityLow &&
			m.current.Quality == episode.QualityHigh && m.given.Quality == episode.QualityMedium:
			desirable = append(desirable, m.given)
		}
	}
	return desirable, nil
}

// ShouldDownload reports whether any part of the candidate is still
// desirable.
func (s *Series) ShouldDownload(ep episode.Episode, sample ...episode.Episode) (bool, error) {
	desirable, err := s.FilterUndesirables(ep, sample...)
	if err != nil {
		return false, err
	}
	return len(desirable) > 0, nil
}

// IsNewerThanCurrent reports whether any part of the candidate airs
// after the newest episode already on disk. An empty series is always
// behind.
func (s *Series) IsNewerThanCurrent(ep episode.Episode) (bool, error) {
	if _, err := s.Files(); err != nil {
		return false, err
	}
	s.mu.Lock()
	newest := s.newest
	s.mu.Unlock()
	if newest == nil {
		return true, nil
	}
	for _, part := range ep.Parts() {
		if newest.Before(part) {
			return true, nil
		}
	}
	return false, nil
}

// LocateSeasonFolder finds the existing directory for a season. Folder
// names are matched numerically, so "Season 1", "s01", and
// "Series 1 (1080p)" all resolve to season 1. When roots are given
// only those directories are searched, otherwise every series path.
func (s *Series) LocateSeasonFolder(season int, roots ...string) (string, bool) {
	if len(roots) == 0 {
		roots = s.Paths
	}
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if seasonFromDir(filepath.Join(root, entry.Name())) == season {
				return filepath.Join(root, entry.Name()), true
			}
		}
	}
	return "", false
}

// DeleteFiles removes the given files from disk and invalidates the
// scan cache.
func (s *Series) DeleteFiles(files ...File) error {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil {
			return fmt.Errorf("%w: %v", ErrFilesystem, err)
		}
		s.logger().Info("deleted episode file", "path", f.Path)
	}
	if len(files) > 0 {
		s.MarkStale()
	}
	return nil
}

// DeleteOldestEpisodeFile removes the file holding the oldest episode,
// enforcing a non-archived series' episode limit.
func (s *Series) DeleteOldestEpisodeFile() (File, error) {
	files, err := s.Files()
	if err != nil {
		return File{}, err
	}
	if len(files) == 0 {
		return File{}, fmt.Errorf("%w: no episode files for %s", ErrFilesystem, s.Name)
	}
	oldest := files[0]
	for _, f := range files[1:] {
		if f.Episode.Before(oldest.Episode) {
			oldest = f
		}
	}
	if err := s.DeleteFiles(oldest); err != nil {
		return File{}, err
	}
	return oldest, nil
}

// FileCount returns the number of episode files on disk.
func (s *Series) FileCount() (int, error) {
	files, err := s.Files()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// Matches reports whether a name refers to this series, by sanitized
// name or alias.
func (s *Series) Matches(name string) bool {
	key := episode.SanitizeName(name)
	if key == s.Key {
		return true
	}
	for _, alias := range s.Aliases {
		if episode.SanitizeName(alias) == key {
			return true
		}
	}
	return false
}
