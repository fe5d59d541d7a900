package registrar

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/pkg/episode"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingStore struct {
	added []episode.Episode
}

func (s *recordingStore) AddEpisode(ep episode.Episode) error {
	s.added = append(s.added, ep)
	return nil
}

func (s *recordingStore) quality(key string) episode.Quality {
	for _, ep := range s.added {
		if ep.Key() == key {
			return ep.Quality
		}
	}
	return episode.QualityUnknown
}

// scriptedPrompt pops canned answers and records what was asked.
type scriptedPrompt struct {
	series []Choice
	bands  []episode.Quality

	askedSizes  []int64
	askedCounts []int
}

func (p *scriptedPrompt) ProcessSeries(name string) (Choice, error) {
	if len(p.series) == 0 {
		return ChoiceYes, nil
	}
	choice := p.series[0]
	p.series = p.series[1:]
	return choice, nil
}

func (p *scriptedPrompt) Quality(count int, averageSize int64, def episode.Quality) (episode.Quality, error) {
	p.askedCounts = append(p.askedCounts, count)
	p.askedSizes = append(p.askedSizes, averageSize)
	if len(p.bands) == 0 {
		return def, nil
	}
	band := p.bands[0]
	p.bands = p.bands[1:]
	return band, nil
}

const mb = 1024 * 1024

func sparse(t *testing.T, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

type sized struct {
	name string
	size int64
}

func fixture(t *testing.T, cfg *config.Config, series string, files ...sized) *library.Index {
	t.Helper()
	root := t.TempDir()
	cfg.TV.Roots = []string{root}
	cfg.TV.IgnoredExtensions = []string{"nfo", "srt"}
	for _, f := range files {
		sparse(t, filepath.Join(root, series, f.name), f.size)
	}
	idx, err := library.NewIndex(cfg, nil, discard())
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestRunGroupsBySize(t *testing.T) {
	cfg := &config.Config{}
	idx := fixture(t, cfg, "Example",
		sized{"Example - 1x01.mkv", 100 * mb},
		sized{"Example - 1x02.mkv", 300 * mb},
		sized{"Example - 1x03.mkv", 310 * mb},
	)

	store := &recordingStore{}
	prompt := &scriptedPrompt{bands: []episode.Quality{episode.QualityLow, episode.QualityHigh}}
	r := New(cfg, idx, store, prompt, discard())
	if err := r.Run(Options{SeriesPrompt: true}); err != nil {
		t.Fatal(err)
	}

	if len(prompt.askedCounts) != 2 {
		t.Fatalf("asked %d size groups, want 2", len(prompt.askedCounts))
	}
	// Groups come smallest first.
	if prompt.askedCounts[0] != 1 || prompt.askedCounts[1] != 2 {
		t.Errorf("group sizes = %v, want [1 2]", prompt.askedCounts)
	}
	if got := store.quality("example 1x01"); got != episode.QualityLow {
		t.Errorf("1x01 quality = %s, want low", got)
	}
	for _, key := range []string{"example 1x02", "example 1x03"} {
		if got := store.quality(key); got != episode.QualityHigh {
			t.Errorf("%s quality = %s, want high", key, got)
		}
	}
}

func TestRunMultiPartGrouping(t *testing.T) {
	cfg := &config.Config{}
	idx := fixture(t, cfg, "Example",
		sized{"Example - 1x01.mkv", 300 * mb},
		sized{"Example - 1x02-03.mkv", 600 * mb},
	)

	store := &recordingStore{}
	prompt := &scriptedPrompt{bands: []episode.Quality{episode.QualityMedium}}
	r := New(cfg, idx, store, prompt, discard())
	if err := r.Run(Options{}); err != nil {
		t.Fatal(err)
	}

	// A two-part file weighs in at its per-part size, so all three
	// episodes land in one group.
	if len(prompt.askedCounts) != 1 || prompt.askedCounts[0] != 3 {
		t.Fatalf("group sizes = %v, want one group of 3", prompt.askedCounts)
	}
	if len(store.added) != 3 {
		t.Fatalf("registered %d episodes, want 3", len(store.added))
	}
	for _, ep := range store.added {
		if ep.Quality != episode.QualityMedium {
			t.Errorf("%s quality = %s, want medium", ep.Key(), ep.Quality)
		}
	}
}

func TestRunExtensionLists(t *testing.T) {
	cfg := &config.Config{}
	idx := fixture(t, cfg, "Example",
		sized{"Example - 1x01.avi", 200 * mb},
		sized{"Example - 1x02.mkv", 900 * mb},
	)

	store := &recordingStore{}
	prompt := &scriptedPrompt{}
	r := New(cfg, idx, store, prompt, discard())
	opts := Options{Low: []string{"avi"}, High: []string{"mkv"}}
	if err := r.Run(opts); err != nil {
		t.Fatal(err)
	}

	if len(prompt.askedCounts) != 0 {
		t.Errorf("prompted for %d size groups, want none", len(prompt.askedCounts))
	}
	if got := store.quality("example 1x01"); got != episode.QualityLow {
		t.Errorf("avi quality = %s, want low", got)
	}
	if got := store.quality("example 1x02"); got != episode.QualityHigh {
		t.Errorf("mkv quality = %s, want high", got)
	}
}

func TestRunSeedsExtensionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.TV.Library.Quality = config.QualityConfig{
		Managed: true,
		Desired: "high",
		Guess:   true,
		Extension: map[string][]string{
			"medium": {"avi"},
		},
	}
	idx := fixture(t, cfg, "Example", sized{"Example - 1x01.avi", 200 * mb})

	store := &recordingStore{}
	prompt := &scriptedPrompt{}
	r := New(cfg, idx, store, prompt, discard())
	if err := r.Run(Options{}); err != nil {
		t.Fatal(err)
	}

	if len(prompt.askedCounts) != 0 {
		t.Errorf("prompted for %d size groups, want none", len(prompt.askedCounts))
	}
	if got := store.quality("example 1x01"); got != episode.QualityMedium {
		t.Errorf("avi quality = %s, want medium from config map", got)
	}
}

func TestRunSeriesPromptChoices(t *testing.T) {
	cfg := &config.Config{}
	root := t.TempDir()
	cfg.TV.Roots = []string{root}
	cfg.TV.IgnoredExtensions = []string{"nfo"}
	sparse(t, filepath.Join(root, "Alpha", "Alpha - 1x01.mkv"), 200*mb)
	sparse(t, filepath.Join(root, "Beta", "Beta - 1x01.mkv"), 200*mb)
	sparse(t, filepath.Join(root, "Gamma", "Gamma - 1x01.mkv"), 200*mb)
	idx, err := library.NewIndex(cfg, nil, discard())
	if err != nil {
		t.Fatal(err)
	}

	store := &recordingStore{}
	prompt := &scriptedPrompt{
		series: []Choice{ChoiceNo, ChoiceYes, ChoiceQuit},
		bands:  []episode.Quality{episode.QualityHigh},
	}
	r := New(cfg, idx, store, prompt, discard())
	if err := r.Run(Options{SeriesPrompt: true}); err != nil {
		t.Fatal(err)
	}

	if len(store.added) != 1 {
		t.Fatalf("registered %d episodes, want 1 (Beta only)", len(store.added))
	}
	if store.added[0].Series != "Beta" {
		t.Errorf("registered series = %s, want Beta", store.added[0].Series)
	}
}

func TestRunSeasonNarrowing(t *testing.T) {
	cfg := &config.Config{}
	idx := fixture(t, cfg, "Example",
		sized{"Season 1/Example - 1x01.mkv", 200 * mb},
		sized{"Season 2/Example - 2x01.mkv", 200 * mb},
		sized{"Season 2/Example - 2x02.mkv", 200 * mb},
	)

	store := &recordingStore{}
	prompt := &scriptedPrompt{bands: []episode.Quality{episode.QualityHigh}}
	r := New(cfg, idx, store, prompt, discard())
	if err := r.Run(Options{Series: "Example", Season: 2}); err != nil {
		t.Fatal(err)
	}

	if len(store.added) != 2 {
		t.Fatalf("registered %d episodes, want the 2 in season 2", len(store.added))
	}
	for _, ep := range store.added {
		if ep.Season != 2 {
			t.Errorf("registered %s outside season 2", ep.Key())
		}
	}
}

func TestRunEpisodeNarrowing(t *testing.T) {
	cfg := &config.Config{}
	idx := fixture(t, cfg, "Example",
		sized{"Example - 1x01.mkv", 200 * mb},
		sized{"Example - 1x02.mkv", 200 * mb},
	)

	store := &recordingStore{}
	prompt := &scriptedPrompt{bands: []episode.Quality{episode.QualityLow}}
	r := New(cfg, idx, store, prompt, discard())
	if err := r.Run(Options{Series: "Example", Season: 1, Episode: 2}); err != nil {
		t.Fatal(err)
	}

	if len(store.added) != 1 || store.added[0].Number != 2 {
		t.Fatalf("registered %v, want exactly 1x02", store.added)
	}
}

func TestRunUnknownSeriesSuggestsClosest(t *testing.T) {
	cfg := &config.Config{}
	idx := fixture(t, cfg, "Example", sized{"Example - 1x01.mkv", 200 * mb})

	r := New(cfg, idx, &recordingStore{}, &scriptedPrompt{}, discard())
	err := r.Run(Options{Series: "Exmaple"})
	if !errors.Is(err, library.ErrUnknownSeries) {
		t.Fatalf("err = %v, want unknown series", err)
	}
	if !strings.Contains(err.Error(), `"Example"`) {
		t.Errorf("err = %v, want a closest-match hint naming Example", err)
	}
}

func TestTerminalProcessSeries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Choice
	}{
		{"default yes", "\n", ChoiceYes},
		{"no", "n\n", ChoiceNo},
		{"quit", "q\n", ChoiceQuit},
		{"help then yes", "?\ny\n", ChoiceYes},
		{"garbage then no", "x\nn\n", ChoiceNo},
		{"eof quits", "", ChoiceQuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			term := NewTerminal(strings.NewReader(tt.input), &out)
			got, err := term.ProcessSeries("Example")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("choice = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminalQuality(t *testing.T) {
	var out strings.Builder
	term := NewTerminal(strings.NewReader("l\n\n"), &out)

	band, err := term.Quality(3, 350*mb, episode.QualityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if band != episode.QualityLow {
		t.Errorf("band = %s, want low", band)
	}
	if !strings.Contains(out.String(), "3 episode(s) with average size of 350MB") {
		t.Errorf("output missing group summary: %q", out.String())
	}
	if !strings.Contains(out.String(), "l/m/[h]") {
		t.Errorf("output missing bracketed default: %q", out.String())
	}

	// Empty answer takes the default.
	band, err = term.Quality(1, 100*mb, episode.QualityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if band != episode.QualityHigh {
		t.Errorf("band = %s, want the high default", band)
	}
}

func TestTerminalQualityQuit(t *testing.T) {
	var out strings.Builder
	term := NewTerminal(strings.NewReader("q\n"), &out)
	if _, err := term.Quality(1, 100*mb, episode.QualityHigh); !errors.Is(err, ErrAborted) {
		t.Errorf("err = %v, want ErrAborted", err)
	}
}
