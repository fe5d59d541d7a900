package episode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pattern order matters: multi-part forms are tried before single-part
// forms so that "s03e01-e02" is not truncated to "s03e01", and daily
// dates are tried before the loose filename-only digit patterns so
// that "2024.03.15" is not read as season 20.
var (
	// s01e02s01e03, s01e02e03, s01e02-s01e03, s01e02-e03
	multiSeasonEpisode = regexp.MustCompile(`(?i)s(\d{1,2})[.\s]?e(\d{1,3})-?(?:s(\d{1,2}))?e(\d{1,3})`)
	// s01e02-03
	multiEpisodeRange = regexp.MustCompile(`(?i)s(\d{1,2})[.\s]?e(\d{1,3})-(\d{1,3})`)
	// 1x02-1x03, 1x02-03
	multiSeasonX = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})-(?:(\d{1,2})x)?(\d{1,3})`)
	// 02-03, filename only, season from the directory layout
	multiBare = regexp.MustCompile(`^(\d{1,3})-(\d{1,3})\b`)

	// s01e02
	singleSeasonEpisode = regexp.MustCompile(`(?i)s(\d{1,2})[.\s]?e(\d{1,3})`)
	// 1x02
	singleSeasonX = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})`)
	// 102 = 1x02, filename only, must not look like a resolution tag
	singleCompact = regexp.MustCompile(`\b(\d{1,2})(\d{2})(?:[^ip0-9]|$)`)
	// 02, filename only, season from the directory layout
	singleBare = regexp.MustCompile(`^(\d{1,3})\b`)

	// 2024.03.15, 2024-03-15, 20240315, ...
	dailyDate = regexp.MustCompile(`\b(\d{4})[.\-/_ ]?(\d{2})[.\-/_ ]?(\d{2})\b`)
)

// FileHint carries context known from the directory layout when
// parsing an on-disk file name: the owning series and, when the file
// sits in a season folder, the season number. Season 0 means unknown.
type FileHint struct {
	Series string
	Season int
}

// Parse reads a feed or report title into an episode identity. The
// series name is the text before the matched numbering, trimmed of
// trailing separators; for titles shaped "<series> - <x> - <title>"
// the third segment becomes the episode title.
func Parse(title string) (Episode, error) {
	ep, err := parse(title, FileHint{}, false)
	if err != nil {
		return Episode{}, err
	}
	if t := extractTitle(title); t != "" {
		ep.Title = t
	}
	return ep, nil
}

// ParseFilename reads an on-disk file name, allowing the loose
// filename-only digit patterns and falling back to the hint for the
// series and season where the name itself carries neither.
func ParseFilename(name string, hint FileHint) (Episode, error) {
	return parse(name, hint, true)
}

func parse(s string, hint FileHint, filename bool) (Episode, error) {
	// Multi-part.
	if m := multiSeasonEpisode.FindStringSubmatchIndex(s); m != nil {
		startSeason := atoi(group(s, m, 1))
		endSeason := startSeason
		if g := group(s, m, 3); g != "" {
			endSeason = atoi(g)
		}
		return newParsedMulti(s, m[0], hint, startSeason, atoi(group(s, m, 2)), endSeason, atoi(group(s, m, 4)))
	}
	if m := multiEpisodeRange.FindStringSubmatchIndex(s); m != nil {
		season := atoi(group(s, m, 1))
		return newParsedMulti(s, m[0], hint, season, atoi(group(s, m, 2)), season, atoi(group(s, m, 3)))
	}
	if m := multiSeasonX.FindStringSubmatchIndex(s); m != nil {
		startSeason := atoi(group(s, m, 1))
		endSeason := startSeason
		if g := group(s, m, 3); g != "" {
			endSeason = atoi(g)
		}
		return newParsedMulti(s, m[0], hint, startSeason, atoi(group(s, m, 2)), endSeason, atoi(group(s, m, 4)))
	}
	if filename && hint.Season > 0 {
		if m := multiBare.FindStringSubmatchIndex(s); m != nil {
			return newParsedMulti(s, m[0], hint, hint.Season, atoi(group(s, m, 1)), hint.Season, atoi(group(s, m, 2)))
		}
	}

	// Single-part.
	if m := singleSeasonEpisode.FindStringSubmatchIndex(s); m != nil {
		return newParsedSingle(s, m[0], hint, atoi(group(s, m, 1)), atoi(group(s, m, 2)))
	}
	if m := singleSeasonX.FindStringSubmatchIndex(s); m != nil {
		return newParsedSingle(s, m[0], hint, atoi(group(s, m, 1)), atoi(group(s, m, 2)))
	}

	// Daily.
	if m := dailyDate.FindStringSubmatchIndex(s); m != nil {
		series := seriesBefore(s, m[0])
		if series == "" {
			series = hint.Series
		}
		return NewDaily(series, atoi(group(s, m, 1)), atoi(group(s, m, 2)), atoi(group(s, m, 3)))
	}

	// Loose filename-only digit patterns, last so broadcast dates and
	// strict forms always win.
	if filename {
		if m := singleCompact.FindStringSubmatchIndex(s); m != nil && !insideParens(s, m[0]) {
			return newParsedSingle(s, m[0], hint, atoi(group(s, m, 1)), atoi(group(s, m, 2)))
		}
		if hint.Season > 0 {
			if m := singleBare.FindStringSubmatchIndex(s); m != nil {
				return newParsedSingle(s, m[0], hint, hint.Season, atoi(group(s, m, 1)))
			}
		}
	}

	return Episode{}, fmt.Errorf("%w: %q", ErrNoMatch, s)
}

func newParsedSingle(s string, start int, hint FileHint, season, number int) (Episode, error) {
	series := seriesBefore(s, start)
	if series == "" {
		series = hint.Series
	}
	return NewSingle(series, season, number)
}

func newParsedMulti(s string, start int, hint FileHint, startSeason, first, endSeason, last int) (Episode, error) {
	if startSeason != endSeason {
		return Episode{}, fmt.Errorf("%w: seasons %d and %d", ErrInvalidMultiEpisode, startSeason, endSeason)
	}
	series := seriesBefore(s, start)
	if series == "" {
		series = hint.Series
	}
	return NewMulti(series, startSeason, first, last)
}

// seriesBefore returns the series name preceding a pattern match,
// trimmed of the separators release names pad with.
func seriesBefore(s string, start int) string {
	return strings.TrimRight(s[:start], ". -_")
}

// extractTitle pulls the episode title out of the conventional
// "<series> - <numbering> - <title>" feed shape.
func extractTitle(s string) string {
	parts := strings.SplitN(s, " - ", 3)
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[2])
}

// insideParens reports whether position i sits inside a parenthesized
// span, which is where year tags like "(2004)" live.
func insideParens(s string, i int) bool {
	open := strings.LastIndexByte(s[:i], '(')
	if open == -1 {
		return false
	}
	return strings.IndexByte(s[open:], ')') > i-open
}

func group(s string, m []int, n int) string {
	if m[2*n] == -1 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
