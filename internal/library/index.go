package library

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/pkg/episode"
)

// Index is the watch list: every series directory found under the
// configured roots, keyed by sanitized name and by alias.
type Index struct {
	series  map[string]*Series
	skipped map[string]bool
	ordered []*Series

	quality           config.QualityConfig
	ignoredExtensions map[string]bool
	store             QualityLookup
	log               *slog.Logger
}

// NewIndex walks the top level of each configured root and builds the
// watch list. Directories named in a skip filter, hidden directories,
// and series whose .ignore file contains "*" are excluded. A series
// appearing under more than one root is merged into a single entry
// with multiple paths.
func NewIndex(cfg *config.Config, store QualityLookup, log *slog.Logger) (*Index, error) {
	idx := &Index{
		series:            make(map[string]*Series),
		skipped:           make(map[string]bool),
		quality:           cfg.TV.Library.Quality,
		ignoredExtensions: make(map[string]bool, len(cfg.TV.IgnoredExtensions)),
		store:             store,
		log:               log.With("component", "library"),
	}
	for _, ext := range cfg.TV.IgnoredExtensions {
		idx.ignoredExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	filters := make(map[string]config.FilterConfig, len(cfg.TV.Filter))
	for name, filter := range cfg.TV.Filter {
		filters[episode.SanitizeName(name)] = filter
	}

	for _, root := range cfg.TV.Roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: reading root %s: %v", ErrFilesystem, root, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			idx.addSeries(root, name, filters)
		}
	}
	return idx, nil
}

func (idx *Index) addSeries(root, name string, filters map[string]config.FilterConfig) {
	key := episode.SanitizeName(name)
	path := filepath.Join(root, name)

	if existing, ok := idx.series[key]; ok {
		// Same series under another root, e.g. a multi-disk layout.
		existing.Paths = append(existing.Paths, path)
		idx.log.Debug("merged series path", "series", existing.Name, "path", path)
		return
	}

	filter := filters[key]
	if filter.Skip {
		idx.log.Debug("skipping series", "series", name)
		idx.skipped[key] = true
		return
	}

	s := &Series{
		Name:           name,
		Key:            key,
		Paths:          []string{path},
		Aliases:        filter.Aliases,
		IgnoredSeasons: filter.IgnoreSeasons,
		Archive:        filter.Archived(),
		index:          idx,
	}
	if !s.Archive {
		s.EpisodeLimit = filter.EpisodeLimit
	}
	if filter.DesiredQuality != "" {
		if band, err := episode.ParseQuality(filter.DesiredQuality); err == nil {
			s.DesiredQuality = band
		} else {
			idx.log.Warn("ignoring invalid desired quality", "series", name, "quality", filter.DesiredQuality)
		}
	}

	skip, err := applyIgnoreFile(s)
	if err != nil {
		idx.log.Warn("unable to read .ignore file", "series", name, "error", err)
	}
	if skip {
		idx.log.Debug("skipping series, .ignore wildcard", "series", name)
		idx.skipped[key] = true
		return
	}

	idx.series[key] = s
	idx.ordered = append(idx.ordered, s)

	for _, alias := range s.Aliases {
		aliasKey := episode.SanitizeName(alias)
		if other, ok := idx.series[aliasKey]; ok && other != s {
			idx.log.Warn("alias already registered", "alias", alias, "series", other.Name)
			continue
		}
		idx.series[aliasKey] = s
	}
}

// applyIgnoreFile reads <series dir>/.ignore when present. A line
// containing "*" drops the whole series; otherwise numeric lines
// replace the configured ignored-seasons list.
func applyIgnoreFile(s *Series) (skip bool, err error) {
	f, err := os.Open(filepath.Join(s.Paths[0], ".ignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var seasons []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "*" {
			return true, nil
		}
		if n, err := strconv.Atoi(line); err == nil {
			seasons = append(seasons, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	if len(seasons) > 0 {
		s.IgnoredSeasons = seasons
	}
	return false, nil
}

// Series resolves a series by display name, sanitized name, or alias.
func (idx *Index) Series(name string) (*Series, error) {
	if s, ok := idx.series[episode.SanitizeName(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, name)
}

// Ignored reports whether the series was explicitly excluded from the
// watch list, by a skip filter or an .ignore wildcard.
func (idx *Index) Ignored(name string) bool {
	return idx.skipped[episode.SanitizeName(name)]
}

// Resolve returns the watched series for a name, or a detached entry
// for a series that is not on the watch list. The sorter uses detached
// entries to file downloads for series with no directory yet.
func (idx *Index) Resolve(name string) *Series {
	if s, ok := idx.series[episode.SanitizeName(name)]; ok {
		return s
	}
	return &Series{
		Name:    name,
		Key:     episode.SanitizeName(name),
		Archive: true,
		index:   idx,
	}
}

// All returns every watched series in root-then-name order.
func (idx *Index) All() []*Series {
	return idx.ordered
}

// Managed reports whether the library manages on-disk quality.
func (idx *Index) Managed() bool {
	return idx.quality.Managed
}
