// Package sorter files a completed download into the library: it picks
// the episode file out of the download directory, renames it under the
// configured templates, prunes superseded copies, and cleans up.
package sorter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/pkg/episode"
)

var (
	// ErrFailedDownload is returned when the newsreader reports the
	// download broken, or the directory carries the failed marker.
	ErrFailedDownload = errors.New("sorter: failed download")

	// ErrInvalidJobTitle is returned when the job name cannot be parsed
	// into an episode.
	ErrInvalidJobTitle = errors.New("sorter: invalid job title")

	// ErrIgnoredSeries is returned when the download belongs to a
	// series the configuration explicitly excludes.
	ErrIgnoredSeries = errors.New("sorter: series is ignored")

	// ErrCleanup marks a sort that succeeded but could not remove the
	// download directory. Callers should treat it as a warning.
	ErrCleanup = errors.New("sorter: cleanup failed")
)

// Request describes one completed download, either from the
// seven-field batch contract or a bare path with an optional quality
// override.
type Request struct {
	Path     string
	NZB      string
	JobName  string
	ReportID string
	Category string
	Group    string
	Status   int

	// Quality overrides every other quality source when set.
	Quality episode.Quality

	DryRun bool
}

// Metadata is the persistence surface the sorter touches.
type Metadata interface {
	GetInProgress(title string) (*metadata.InProgress, error)
	DeleteInProgress(titles ...string) error
	AddEpisode(ep episode.Episode) error
}

type Sorter struct {
	cfg   *config.Config
	index *library.Index
	store Metadata
	log   *slog.Logger
}

func New(cfg *config.Config, index *library.Index, store Metadata, log *slog.Logger) *Sorter {
	return &Sorter{cfg: cfg, index: index, store: store, log: log.With("component", "sorter")}
}

// Sort moves the download into place. An ErrCleanup return means the
// episode was filed but the download directory could not be removed.
func (s *Sorter) Sort(req Request) error {
	if req.Path == "" {
		return fmt.Errorf("%w: path to completed job is missing", library.ErrFilesystem)
	}
	if _, err := os.Stat(req.Path); err != nil {
		return fmt.Errorf("%w: %v", library.ErrFilesystem, err)
	}
	if err := checkStatus(req); err != nil {
		return err
	}

	job := req.JobName
	if job == "" {
		job = filepath.Base(req.Path)
	}

	orig, size, ext, err := s.locateDownload(req.Path)
	if err != nil {
		return err
	}
	s.log.Info("found download file", "path", orig, "size", size)

	record, ep, err := s.parseJob(job, req.ReportID)
	if err != nil {
		return err
	}

	if s.index.Ignored(ep.Series) {
		return fmt.Errorf("%w: %s", ErrIgnoredSeries, ep.Series)
	}
	series := s.index.Resolve(ep.Series)
	ep.Series = series.Name
	ep.Quality = s.resolveQuality(req, record, ext, series)

	if req.DryRun {
		s.log.Info("dry run, not sorting", "episode", ep.String())
		return nil
	}

	destDir, err := s.destination(series, ep, size)
	if err != nil {
		return err
	}

	// An episode already on disk at equal or better quality is kept;
	// the new file gets a tagged name so both survive.
	desirables, err := series.FilterUndesirables(ep)
	if err != nil {
		return err
	}
	var additional string
	if len(desirables) == 0 {
		s.log.Warn("duplicate episode detected", "episode", ep.String())
		additional = fmt.Sprintf("[%s].%s", ep.Quality, time.Now().Format("200601021504"))
	}

	newPath := filepath.Join(destDir, s.cfg.TV.Template.Filename(ep, additional, ext))
	if err := moveFile(orig, newPath); err != nil {
		return fmt.Errorf("%w: moving episode to %s: %v", library.ErrFilesystem, newPath, err)
	}
	s.log.Info("episode moved", "from", orig, "to", newPath)

	if s.cfg.TV.Library.Quality.Managed {
		if err := s.store.DeleteInProgress(job); err != nil {
			return err
		}
	}

	if additional == "" {
		series.MarkStale()
		if s.cfg.TV.Library.Quality.Managed {
			for _, part := range desirables {
				if err := s.store.AddEpisode(part); err != nil {
					return err
				}
			}
		}
		if err := s.prune(series, ep, newPath); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(req.Path); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	s.log.Info("removed download directory", "path", req.Path)
	return nil
}

func checkStatus(req Request) error {
	failed := strings.HasPrefix(filepath.Base(req.Path), "_FAILED_")
	if !failed && req.Status == 0 {
		return nil
	}
	switch req.Status {
	case 1:
		return fmt.Errorf("%w: failed verification", ErrFailedDownload)
	case 2:
		return fmt.Errorf("%w: failed unpack", ErrFailedDownload)
	case 3:
		return fmt.Errorf("%w: failed verification and unpack", ErrFailedDownload)
	default:
		return fmt.Errorf("%w: download failed", ErrFailedDownload)
	}
}

// locateDownload walks the download directory and picks the largest
// file whose extension is not ignored.
func (s *Sorter) locateDownload(path string) (orig string, size int64, ext string, err error) {
	ignored := make(map[string]bool, len(s.cfg.TV.IgnoredExtensions))
	for _, e := range s.cfg.TV.IgnoredExtensions {
		ignored[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		e := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if ignored[e] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > size {
			orig, size, ext = p, info.Size(), e
		}
		return nil
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: %v", library.ErrFilesystem, err)
	}
	if orig == "" {
		return "", 0, "", fmt.Errorf("%w: no episode file in %s", library.ErrFilesystem, path)
	}
	return orig, size, ext, nil
}

// parseJob picks the title parser: the in-progress record's source is
// authoritative, then a nonempty report id selects the report grammar,
// then the standard release grammar.
func (s *Sorter) parseJob(job, reportID string) (*metadata.InProgress, episode.Episode, error) {
	var record *metadata.InProgress
	if s.store != nil {
		rec, err := s.store.GetInProgress(job)
		switch {
		case err == nil:
			record = rec
		case !errors.Is(err, metadata.ErrNotFound):
			return nil, episode.Episode{}, err
		}
	}

	useReportGrammar := reportID != ""
	if record != nil {
		useReportGrammar = record.Source == "newzbin"
	}

	var ep episode.Episode
	var err error
	if useReportGrammar {
		ep, err = feed.ParseReportTitle(job)
	} else {
		ep, err = episode.Parse(job)
	}
	if err != nil {
		return nil, episode.Episode{}, fmt.Errorf("%w: %q: %v", ErrInvalidJobTitle, job, err)
	}
	return record, ep, nil
}

// resolveQuality in order: explicit override, in-progress record,
// extension guess, desired default.
func (s *Sorter) resolveQuality(req Request, record *metadata.InProgress, ext string, series *library.Series) episode.Quality {
	quality := s.cfg.TV.Library.Quality
	if !quality.Managed {
		return episode.QualityUnknown
	}
	if req.Quality != episode.QualityUnknown {
		return req.Quality
	}
	if record != nil {
		return record.Quality
	}
	if quality.Guess {
		if band := quality.QualityForExtension(ext); band != episode.QualityUnknown {
			return band
		}
	}
	s.log.Info("no quality information for job, assuming desired level")
	return series.Desired()
}

// destination resolves (and creates if needed) the season directory on
// a root with enough free space for the file.
func (s *Sorter) destination(series *library.Series, ep episode.Episode, size int64) (string, error) {
	freeRoot := ""
	for _, root := range s.cfg.TV.Roots {
		free, err := diskFree(root)
		if err != nil {
			s.log.Warn("unable to stat filesystem", "root", root, "error", err)
			continue
		}
		if free >= size {
			freeRoot = root
			break
		}
	}
	if freeRoot == "" {
		return "", fmt.Errorf("%w: no disk with %d bytes free", library.ErrFilesystem, size)
	}

	seriesDir := ""
	for _, dir := range series.Paths {
		if strings.HasPrefix(dir, freeRoot) {
			seriesDir = dir
			break
		}
	}
	if seriesDir == "" {
		seriesDir = filepath.Join(freeRoot, s.cfg.TV.Template.SeriesDirname(series.Name))
		if err := os.MkdirAll(seriesDir, 0o755); err != nil {
			return "", fmt.Errorf("%w: creating %s: %v", library.ErrFilesystem, seriesDir, err)
		}
		s.log.Debug("created series directory", "dir", seriesDir)
		series.AddPath(seriesDir)
	}

	if dir, found := series.LocateSeasonFolder(ep.Season, seriesDir); found {
		return dir, nil
	}
	destDir := filepath.Join(seriesDir, s.cfg.TV.Template.SeasonDirname(ep))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", library.ErrFilesystem, destDir, err)
	}
	s.log.Debug("created season directory", "dir", destDir)
	return destDir, nil
}

// prune removes on-disk copies the new file supersedes: a multi-part
// file goes once every one of its parts exists individually; any other
// equal-identity file that is not the new file goes outright. A
// non-archived series is then trimmed to its episode limit, one file
// at a time.
func (s *Sorter) prune(series *library.Series, ep episode.Episode, newPath string) error {
	files, err := series.FindEpisodeOnDisk(ep, true)
	if err != nil {
		return err
	}

	var remove []library.File
	for _, found := range files {
		if found.Path == newPath {
			continue
		}
		if found.Episode.Kind == episode.KindMulti {
			redundant := true
			for _, part := range found.Episode.Parts() {
				singles, err := series.FindEpisodeOnDisk(part, false)
				if err != nil {
					return err
				}
				if len(singles) == 0 {
					redundant = false
					break
				}
			}
			if redundant {
				remove = append(remove, found)
			}
		} else if found.Path != newPath {
			remove = append(remove, found)
		}
	}

	if !series.Archive && series.EpisodeLimit > 0 {
		count, err := series.FileCount()
		if err != nil {
			return err
		}
		if count > series.EpisodeLimit {
			if count > series.EpisodeLimit+1 {
				s.log.Warn("series exceeds episode limit by more than one, removing a single file",
					"series", series.Name, "limit", series.EpisodeLimit, "count", count)
			} else {
				s.log.Info("removing oldest episode", "series", series.Name)
			}
			if _, err := series.DeleteOldestEpisodeFile(); err != nil {
				return err
			}
		}
	}

	if len(remove) > 0 {
		return series.DeleteFiles(remove...)
	}
	return nil
}

// moveFile renames when possible and falls back to copy-and-delete
// across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
