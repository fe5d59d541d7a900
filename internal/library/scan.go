package library

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/pkg/episode"
)

// Files smaller than this are samples or junk, never episodes.
const minEpisodeSize = 50 * 1024 * 1024

// duplicateSuffix matches the timestamp the sorter appends when it
// files a duplicate, e.g. "show - 1x02.[low].202403151204.avi".
var duplicateSuffix = regexp.MustCompile(`\.\d{12}$`)

// Files returns every episode file under the series paths. The scan is
// cached until MarkStale.
func (s *Series) Files() ([]File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scanLocked(); err != nil {
		return nil, err
	}
	return s.files, nil
}

// Episodes returns the flattened episode identities on disk: singles,
// dailies, and the individual parts of multi-episode files, each
// carrying its resolved quality. A part already present as its own
// file is not repeated.
func (s *Series) Episodes() ([]episode.Episode, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(files))
	var eps []episode.Episode
	for _, f := range files {
		for _, part := range f.Episode.Parts() {
			if seen[part.Key()] {
				continue
			}
			seen[part.Key()] = true
			eps = append(eps, part)
		}
	}
	return eps, nil
}

func (s *Series) scanLocked() error {
	if s.scanned {
		return nil
	}

	byKey := make(map[string]File)
	var order []string
	log := s.logger()

	for _, root := range s.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFilesystem, err)
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}

			f, ok, err := s.examine(path, d)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			key := f.Episode.Key()
			if existing, dup := byKey[key]; dup {
				// Same episode twice on disk: the larger file wins.
				if f.Size <= existing.Size {
					return nil
				}
			} else {
				order = append(order, key)
			}
			byKey[key] = f
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.files = s.files[:0]
	s.newest = nil
	for _, key := range order {
		f := byKey[key]
		s.files = append(s.files, f)
		for _, part := range f.Episode.Parts() {
			if s.newest == nil || s.newest.Before(part) {
				p := part
				s.newest = &p
			}
		}
	}
	s.scanned = true
	log.Debug("scanned series", "files", len(s.files))
	return nil
}

// examine decides whether a directory entry is an episode file and, if
// so, parses and quality-resolves it.
func (s *Series) examine(path string, d fs.DirEntry) (File, bool, error) {
	name := d.Name()
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	if duplicateSuffix.MatchString(stem) {
		return File{}, false, nil
	}
	if s.index.ignoredExtensions[ext] {
		return File{}, false, nil
	}

	info, err := d.Info()
	if err != nil {
		return File{}, false, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	if info.Size() < minEpisodeSize {
		return File{}, false, nil
	}

	hint := episode.FileHint{Series: s.Name, Season: seasonFromDir(filepath.Dir(path))}
	ep, err := episode.ParseFilename(stem, hint)
	if err != nil {
		s.logger().Debug("unparseable filename", "file", name)
		return File{}, false, nil
	}

	ep.Quality = s.resolveQuality(ep, ext)
	return File{Episode: ep, Path: path, Size: info.Size(), Extension: ext}, true, nil
}

// resolveQuality picks the quality band of an on-disk file. Managed
// libraries prefer the recorded quality, then the extension guess, and
// finally assume the file is already at the desired band.
func (s *Series) resolveQuality(ep episode.Episode, ext string) episode.Quality {
	if !s.index.quality.Managed {
		return episode.QualityUnknown
	}
	if s.index.store != nil {
		band, err := s.index.store.GetEpisode(ep)
		if err == nil {
			return band
		}
		if !errors.Is(err, metadata.ErrNotFound) {
			s.logger().Warn("quality lookup failed", "episode", ep.Key(), "error", err)
		}
	}
	if s.index.quality.Guess {
		if band := s.index.quality.QualityForExtension(ext); band != episode.QualityUnknown {
			return band
		}
	}
	desired := s.Desired()
	s.logger().Warn("assuming desired quality for unrecorded episode", "episode", ep.Key(), "quality", desired)
	return desired
}

var nonDigits = regexp.MustCompile(`\D`)

// seasonFromDir extracts the season number from a season directory
// name, tolerating trailing parenthesized metadata. Returns 0 when the
// name carries no digits.
func seasonFromDir(dir string) int {
	name := strings.TrimSpace(trailingParens.ReplaceAllString(filepath.Base(dir), ""))
	digits := nonDigits.ReplaceAllString(name, "")
	if digits == "" {
		return 0
	}
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	return n
}

var trailingParens = regexp.MustCompile(`\s*\(.+?\)\s*$`)
