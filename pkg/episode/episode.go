// Package episode parses release and file names into episode identities
// and renders them back under user naming templates.
package episode

import (
	"fmt"
)

// Kind tags the episode variant.
type Kind int

const (
	KindSingle Kind = iota
	KindDaily
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindDaily:
		return "daily"
	case KindMulti:
		return "multi"
	default:
		return "single"
	}
}

// Episode is a parsed release identity. Exactly one variant is active,
// selected by Kind: a single episode (Season/Number), a daily broadcast
// (Year/Month/Day), or a multi-part file (Episodes, all single, same
// season, contiguous numbers).
type Episode struct {
	Series string // display name as parsed or configured
	Kind   Kind

	Season int // single and multi; for daily this equals Year
	Number int // single only

	Year  int // daily only
	Month int
	Day   int

	Episodes []Episode // multi parts, each KindSingle

	Title   string
	Quality Quality
}

// NewSingle builds a single-episode identity.
func NewSingle(series string, season, number int) (Episode, error) {
	if series == "" {
		return Episode{}, fmt.Errorf("%w: series name", ErrMissingParameter)
	}
	return Episode{Series: series, Kind: KindSingle, Season: season, Number: number}, nil
}

// NewDaily builds a daily-broadcast identity. The season of a daily
// episode is its year.
func NewDaily(series string, year, month, day int) (Episode, error) {
	if series == "" {
		return Episode{}, fmt.Errorf("%w: series name", ErrMissingParameter)
	}
	if year == 0 || month == 0 || day == 0 {
		return Episode{}, fmt.Errorf("%w: daily episode values", ErrMissingParameter)
	}
	return Episode{Series: series, Kind: KindDaily, Season: year, Year: year, Month: month, Day: day}, nil
}

// NewMulti builds a multi-part identity spanning first..last inclusive.
func NewMulti(series string, season, first, last int) (Episode, error) {
	if series == "" {
		return Episode{}, fmt.Errorf("%w: series name", ErrMissingParameter)
	}
	if last <= first {
		return Episode{}, fmt.Errorf("%w: episode range %d-%d", ErrInvalidMultiEpisode, first, last)
	}
	parts := make([]Episode, 0, last-first+1)
	for n := first; n <= last; n++ {
		parts = append(parts, Episode{Series: series, Kind: KindSingle, Season: season, Number: n})
	}
	return Episode{Series: series, Kind: KindMulti, Season: season, Episodes: parts}, nil
}

// SeriesKey returns the sanitized series name used as the canonical
// lookup key.
func (e Episode) SeriesKey() string {
	return SanitizeName(e.Series)
}

// Key returns the identity string of the episode. Two episodes are the
// same iff their keys are equal.
func (e Episode) Key() string {
	switch e.Kind {
	case KindDaily:
		return fmt.Sprintf("%s %04d-%02d-%02d", e.SeriesKey(), e.Year, e.Month, e.Day)
	case KindMulti:
		first := e.Episodes[0]
		last := e.Episodes[len(e.Episodes)-1]
		return fmt.Sprintf("%s %dx%02d-%dx%02d", e.SeriesKey(), first.Season, first.Number, last.Season, last.Number)
	default:
		return fmt.Sprintf("%s %dx%02d", e.SeriesKey(), e.Season, e.Number)
	}
}

// Equal reports whether two episodes share variant, series, and key
// tuple.
func (e Episode) Equal(other Episode) bool {
	return e.Kind == other.Kind && e.Key() == other.Key()
}

// Parts returns the constituent single (or daily) episodes. Singles and
// dailies are their own single part. Quality and series are propagated.
func (e Episode) Parts() []Episode {
	if e.Kind != KindMulti {
		return []Episode{e}
	}
	parts := make([]Episode, len(e.Episodes))
	for i, p := range e.Episodes {
		p.Quality = e.Quality
		parts[i] = p
	}
	return parts
}

// Before orders episodes of the same series: broadcast date for daily,
// (season, episode) otherwise. A multi sorts by its last part.
func (e Episode) Before(other Episode) bool {
	if e.Kind == KindDaily || other.Kind == KindDaily {
		a := [3]int{e.Year, e.Month, e.Day}
		b := [3]int{other.Year, other.Month, other.Day}
		return a[0] < b[0] || (a[0] == b[0] && (a[1] < b[1] || (a[1] == b[1] && a[2] < b[2])))
	}
	if e.Season != other.Season {
		return e.Season < other.Season
	}
	return e.lastNumber() < other.lastNumber()
}

func (e Episode) lastNumber() int {
	if e.Kind == KindMulti {
		return e.Episodes[len(e.Episodes)-1].Number
	}
	return e.Number
}

func (e Episode) String() string {
	switch e.Kind {
	case KindDaily:
		return fmt.Sprintf("%s %04d-%02d-%02d", e.Series, e.Year, e.Month, e.Day)
	case KindMulti:
		first := e.Episodes[0]
		last := e.Episodes[len(e.Episodes)-1]
		return fmt.Sprintf("%s %dx%02d-%dx%02d", e.Series, first.Season, first.Number, last.Season, last.Number)
	default:
		return fmt.Sprintf("%s %dx%02d", e.Series, e.Season, e.Number)
	}
}
