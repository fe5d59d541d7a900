// Package registrar seeds the metadata store with quality bands for
// episodes already on disk. Files are assigned by extension when the
// operator maps one, otherwise grouped by approximate size and put to
// the interactive prompt one group at a time.
package registrar

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/pkg/episode"
)

// ErrAborted is returned when the operator quits mid-run. Assignments
// made before the quit are already committed.
var ErrAborted = errors.New("registrar: aborted")

// suggestionThreshold is the minimum Jaro-Winkler similarity for a
// closest-match hint on an unknown series name.
const suggestionThreshold = 0.7

// Metadata is the persistence surface the registrar writes to.
type Metadata interface {
	AddEpisode(ep episode.Episode) error
}

// Options narrows and automates a run. The extension lists assign
// that band to every file with a matching extension without
// prompting; Series/Season/Episode restrict which files are visited.
type Options struct {
	Low    []string
	Medium []string
	High   []string

	// SeriesPrompt asks for confirmation before each series.
	SeriesPrompt bool

	Series  string
	Season  int
	Episode int
}

type Registrar struct {
	cfg    *config.Config
	index  *library.Index
	store  Metadata
	prompt Prompter
	log    *slog.Logger
}

func New(cfg *config.Config, index *library.Index, store Metadata, prompt Prompter, log *slog.Logger) *Registrar {
	return &Registrar{
		cfg:    cfg,
		index:  index,
		store:  store,
		prompt: prompt,
		log:    log.With("component", "registrar"),
	}
}

// Run walks the selected series and registers a quality band for
// every episode file, by extension map or by prompted size group.
func (r *Registrar) Run(opts Options) error {
	series, err := r.selectSeries(opts)
	if err != nil {
		return err
	}

	// Guessing config seeds the extension lists the operator left empty.
	quality := r.cfg.TV.Library.Quality
	if quality.Managed && quality.Guess {
		if len(opts.Low) == 0 {
			opts.Low = quality.Extension[episode.QualityLow.String()]
		}
		if len(opts.Medium) == 0 {
			opts.Medium = quality.Extension[episode.QualityMedium.String()]
		}
		if len(opts.High) == 0 {
			opts.High = quality.Extension[episode.QualityHigh.String()]
		}
	}

	for _, s := range series {
		if opts.SeriesPrompt {
			choice, err := r.prompt.ProcessSeries(s.Name)
			if err != nil {
				return err
			}
			switch choice {
			case ChoiceNo:
				continue
			case ChoiceQuit:
				return nil
			}
		}
		if err := r.registerSeries(s, opts); err != nil {
			return err
		}
	}
	return nil
}

// selectSeries resolves the narrowing options to a series list. An
// unknown name gets a closest-match hint when one clears the
// similarity threshold.
func (r *Registrar) selectSeries(opts Options) ([]*library.Series, error) {
	if opts.Series == "" {
		all := r.index.All()
		series := make([]*library.Series, len(all))
		copy(series, all)
		sort.Slice(series, func(i, j int) bool { return series[i].Key < series[j].Key })
		return series, nil
	}

	s, err := r.index.Series(opts.Series)
	if err == nil {
		return []*library.Series{s}, nil
	}
	if suggestion, ok := r.closestMatch(opts.Series); ok {
		return nil, fmt.Errorf("%w (closest match: %q)", err, suggestion)
	}
	return nil, err
}

func (r *Registrar) closestMatch(name string) (string, bool) {
	target := episode.SanitizeName(name)
	best := ""
	bestScore := float64(suggestionThreshold)
	for _, s := range r.index.All() {
		score := float64(edlib.JaroWinklerSimilarity(target, s.Key))
		if score >= bestScore {
			best, bestScore = s.Name, score
		}
	}
	return best, best != ""
}

// sizeGroup accumulates parts whose per-part file size stays within
// 10% of the group's running average.
type sizeGroup struct {
	average int64
	total   int64
	parts   []episode.Episode
}

func (g *sizeGroup) matches(perPart int64) bool {
	diff := float64(g.average)/float64(perPart) - 1
	if diff < 0 {
		diff = -diff
	}
	return diff <= 0.1
}

func (g *sizeGroup) add(size int64, parts []episode.Episode) {
	g.total += size
	g.parts = append(g.parts, parts...)
	g.average = g.total / int64(len(g.parts))
}

func (r *Registrar) registerSeries(s *library.Series, opts Options) error {
	files, err := s.Files()
	if err != nil {
		return err
	}
	r.log.Info("processing series", "series", s.Name, "files", len(files))

	byBand := map[episode.Quality][]episode.Episode{}
	var groups []*sizeGroup

	for _, file := range files {
		if opts.Season > 0 {
			ep := file.Episode
			if ep.Kind == episode.KindMulti {
				ep = ep.Episodes[0]
			}
			if ep.Season != opts.Season {
				continue
			}
			if opts.Episode > 0 && ep.Number != opts.Episode {
				continue
			}
		}

		parts := file.Episode.Parts()
		if band, ok := bandForExtension(file.Extension, opts); ok {
			byBand[band] = append(byBand[band], parts...)
			continue
		}

		perPart := file.Size / int64(len(parts))
		placed := false
		for _, g := range groups {
			if g.matches(perPart) {
				g.add(file.Size, parts)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, &sizeGroup{average: file.Size, total: file.Size, parts: parts})
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].average < groups[j].average })

	def := s.Desired()
	for _, g := range groups {
		band, err := r.prompt.Quality(len(g.parts), g.average, def)
		if err != nil {
			return err
		}
		if err := r.register(g.parts, band); err != nil {
			return err
		}
	}

	for _, band := range []episode.Quality{episode.QualityLow, episode.QualityMedium, episode.QualityHigh} {
		parts := byBand[band]
		if len(parts) == 0 {
			continue
		}
		r.log.Info("registering episodes by extension", "quality", band.String(), "count", len(parts))
		if err := r.register(parts, band); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registrar) register(parts []episode.Episode, band episode.Quality) error {
	for _, part := range parts {
		part.Quality = band
		if err := r.store.AddEpisode(part); err != nil {
			return err
		}
	}
	return nil
}

func bandForExtension(ext string, opts Options) (episode.Quality, bool) {
	ext = strings.ToLower(ext)
	switch {
	case contains(opts.Low, ext):
		return episode.QualityLow, true
	case contains(opts.Medium, ext):
		return episode.QualityMedium, true
	case contains(opts.High, ext):
		return episode.QualityHigh, true
	}
	return episode.QualityUnknown, false
}

func contains(list []string, ext string) bool {
	for _, e := range list {
		if strings.ToLower(strings.TrimPrefix(e, ".")) == ext {
			return true
		}
	}
	return false
}
