package episode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Templates holds the user naming templates. Placeholders use the
// $(key) form, with an optional numeric padding suffix for integer
// keys ($(episode)02d). For every key an uppercase spelling renders
// the uppercase form. Unknown keys render empty.
type Templates struct {
	Series        string `toml:"series"`
	Season        string `toml:"season"`
	SmartTitle    string `toml:"smart_title"`
	SingleEpisode string `toml:"single_episode"`
	DailyEpisode  string `toml:"daily_episode"`
}

// DefaultTemplates returns the out-of-the-box naming scheme:
//
//	Example/1/Example - s01e02 - Pilot.mkv
//	Show/2024/Show - 2024-03-15.mkv
func DefaultTemplates() Templates {
	return Templates{
		Series:        "$(series)",
		Season:        "$(season)",
		SmartTitle:    " - $(title)",
		SingleEpisode: "$(series) - $(season_episode_1)$(smart_title)",
		DailyEpisode:  "$(series) - $(daily-)$(smart_title)",
	}
}

// placeholder matches $(key), $(key)s and $(key)02d.
var placeholder = regexp.MustCompile(`\$\(([A-Za-z0-9_.\-]+)\)((\d*)[ds])?`)

type paramKind int

const (
	paramString paramKind = iota
	paramInt
	paramRange
)

type param struct {
	kind        paramKind
	s           string
	n           int
	first, last int
}

// Filename renders the episode's file name. additional, when nonempty,
// is appended before the extension (duplicate tagging uses this). The
// extension is appended without a leading dot of its own.
func (t Templates) Filename(ep Episode, additional, extension string) string {
	tmpl := t.SingleEpisode
	if ep.Kind == KindDaily {
		tmpl = t.DailyEpisode
	}
	name := t.render(tmpl, ep)
	if additional != "" {
		name += "." + additional
	}
	if extension != "" {
		name += "." + strings.TrimPrefix(extension, ".")
	}
	return name
}

// SeriesDirname renders the series directory name.
func (t Templates) SeriesDirname(series string) string {
	params := map[string]param{}
	addSeriesParams(params, series)
	return expand(t.Series, params)
}

// SeasonDirname renders the season directory name. For daily series
// the season is the broadcast year.
func (t Templates) SeasonDirname(ep Episode) string {
	params := map[string]param{}
	addSeriesParams(params, ep.Series)
	addIntParam(params, "season", ep.Season)
	return expand(t.Season, params)
}

func (t Templates) render(tmpl string, ep Episode) string {
	params := map[string]param{}
	addSeriesParams(params, ep.Series)
	addIntParam(params, "season", ep.Season)

	switch ep.Kind {
	case KindDaily:
		addStringParam(params, "daily", fmt.Sprintf("%04d%02d%02d", ep.Year, ep.Month, ep.Day))
		addStringParam(params, "daily.", fmt.Sprintf("%04d.%02d.%02d", ep.Year, ep.Month, ep.Day))
		addStringParam(params, "daily-", fmt.Sprintf("%04d-%02d-%02d", ep.Year, ep.Month, ep.Day))
		addStringParam(params, "daily_", fmt.Sprintf("%04d_%02d_%02d", ep.Year, ep.Month, ep.Day))
	case KindMulti:
		first := ep.Episodes[0]
		last := ep.Episodes[len(ep.Episodes)-1]
		params["episode"] = param{kind: paramRange, first: first.Number, last: last.Number}
		params["EPISODE"] = params["episode"]
		addStringParam(params, "season_episode_1",
			fmt.Sprintf("s%02de%02d-s%02de%02d", first.Season, first.Number, last.Season, last.Number))
		addStringParam(params, "season_episode_2",
			fmt.Sprintf("%dx%02d-%dx%02d", first.Season, first.Number, last.Season, last.Number))
	default:
		addIntParam(params, "episode", ep.Number)
		addStringParam(params, "season_episode_1", fmt.Sprintf("s%02de%02d", ep.Season, ep.Number))
		addStringParam(params, "season_episode_2", fmt.Sprintf("%dx%02d", ep.Season, ep.Number))
	}

	if ep.Quality != QualityUnknown {
		addStringParam(params, "quality", ep.Quality.String())
	}

	if ep.Title != "" {
		addStringParam(params, "title", ep.Title)
		addStringParam(params, "title.", strings.ReplaceAll(ep.Title, " ", "."))
		addStringParam(params, "title_", strings.ReplaceAll(ep.Title, " ", "_"))
	}

	// smart_title expands its own template only when a title exists.
	if t.SmartTitle != "" && ep.Title != "" {
		smart := expand(t.SmartTitle, params)
		params["smart_title"] = param{kind: paramString, s: smart}
		params["SMART_TITLE"] = param{kind: paramString, s: strings.ToUpper(smart)}
	}

	return expand(tmpl, params)
}

func expand(tmpl string, params map[string]param) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := placeholder.FindStringSubmatch(m)
		p, ok := params[sub[1]]
		if !ok {
			return ""
		}
		switch p.kind {
		case paramInt:
			return fmt.Sprintf("%0*d", padWidth(sub[3]), p.n)
		case paramRange:
			w := padWidth(sub[3])
			return fmt.Sprintf("%0*d-%0*d", w, p.first, w, p.last)
		default:
			return p.s
		}
	})
}

func padWidth(digits string) int {
	if digits == "" {
		return 0
	}
	w, _ := strconv.Atoi(digits)
	return w
}

func addSeriesParams(params map[string]param, series string) {
	addStringParam(params, "series", series)
	addStringParam(params, "series.", strings.ReplaceAll(series, " ", "."))
	addStringParam(params, "series_", strings.ReplaceAll(series, " ", "_"))
}

func addStringParam(params map[string]param, key, value string) {
	params[key] = param{kind: paramString, s: value}
	params[strings.ToUpper(key)] = param{kind: paramString, s: strings.ToUpper(value)}
}

func addIntParam(params map[string]param, key string, value int) {
	params[key] = param{kind: paramInt, n: value}
	params[strings.ToUpper(key)] = params[key]
}
