// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/mediarover/pkg/episode"
)

// Config is the root configuration structure, loaded from
// mediarover.conf in the config directory.
type Config struct {
	TV      TVConfig      `toml:"tv"`
	Source  SourcesConfig `toml:"source"`
	Queue   QueueConfig   `toml:"queue"`
	Logging LoggingConfig `toml:"logging"`
}

type TVConfig struct {
	Roots             []string                `toml:"tv_root"`
	IgnoredExtensions []string                `toml:"ignored_extensions"`
	Library           LibraryConfig           `toml:"library"`
	MultiEpisode      MultiEpisodeConfig      `toml:"multiepisode"`
	Filter            map[string]FilterConfig `toml:"filter"`
	Template          episode.Templates       `toml:"template"`
}

type LibraryConfig struct {
	Quality QualityConfig `toml:"quality"`
}

// QualityConfig is the managed-quality policy: when Managed is on the
// engine upgrades on-disk files toward Desired, accepting only the
// bands listed in Acceptable along the way.
type QualityConfig struct {
	Managed    bool                `toml:"managed"`
	Desired    string              `toml:"desired"`
	Acceptable []string            `toml:"acceptable"`
	Guess      bool                `toml:"guess"`
	Extension  map[string][]string `toml:"extension"`
}

// DesiredQuality returns the parsed desired band; QualityUnknown when
// unset.
func (q QualityConfig) DesiredQuality() episode.Quality {
	band, _ := episode.ParseQuality(q.Desired)
	return band
}

// AcceptableQualities returns the parsed acceptable set. An empty
// config list means every band is acceptable.
func (q QualityConfig) AcceptableQualities() []episode.Quality {
	if len(q.Acceptable) == 0 {
		return []episode.Quality{episode.QualityLow, episode.QualityMedium, episode.QualityHigh}
	}
	bands := make([]episode.Quality, 0, len(q.Acceptable))
	for _, s := range q.Acceptable {
		if band, err := episode.ParseQuality(s); err == nil {
			bands = append(bands, band)
		}
	}
	return bands
}

// QualityForExtension consults the extension map; QualityUnknown when
// the extension is unmapped.
func (q QualityConfig) QualityForExtension(ext string) episode.Quality {
	for band, exts := range q.Extension {
		for _, e := range exts {
			if e == ext {
				parsed, _ := episode.ParseQuality(band)
				return parsed
			}
		}
	}
	return episode.QualityUnknown
}

type MultiEpisodeConfig struct {
	Allow  bool `toml:"allow"`
	Prefer bool `toml:"prefer"`
}

// FilterConfig is the per-series policy table, keyed by display name.
type FilterConfig struct {
	Skip           bool     `toml:"skip"`
	IgnoreSeasons  []int    `toml:"ignore_seasons"`
	Archive        *bool    `toml:"archive"`
	EpisodeLimit   int      `toml:"episode_limit"`
	DesiredQuality string   `toml:"desired_quality"`
	Aliases        []string `toml:"alias"`
}

// Archived reports the archive flag; series are archived by default.
func (f FilterConfig) Archived() bool {
	return f.Archive == nil || *f.Archive
}

type SourcesConfig struct {
	Newznab map[string]SourceConfig `toml:"newznab"`
	Newzbin map[string]SourceConfig `toml:"newzbin"`
}

type SourceConfig struct {
	URL      string        `toml:"url"`
	Type     string        `toml:"type"`
	Quality  string        `toml:"quality"`
	Priority string        `toml:"priority"`
	Timeout  time.Duration `toml:"timeout"`
	Delay    int           `toml:"delay"`
}

type QueueConfig struct {
	SABnzbd *SABnzbdConfig `toml:"sabnzbd"`
}

type SABnzbdConfig struct {
	Root      string `toml:"root"`
	APIKey    string `toml:"api_key"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Category  string `toml:"category"`
	BackupDir string `toml:"backup_dir"`
}

type LoggingConfig struct {
	Level           string `toml:"level"`
	GenerateSortLog bool   `toml:"generate_sort_log"`
}

// Load reads and parses the configuration file. Unresolved ${VAR}
// references and validation failures are aggregated into a single
// *ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.TV.IgnoredExtensions) == 0 {
		c.TV.IgnoredExtensions = []string{"nfo", "txt", "sfv", "srt", "sub", "idx", "jpg", "png", "par2"}
	}
	if c.TV.Template.Series == "" {
		c.TV.Template = episode.DefaultTemplates()
	}
	for name, src := range c.Source.Newznab {
		c.Source.Newznab[name] = src.withDefaults()
	}
	for name, src := range c.Source.Newzbin {
		c.Source.Newzbin[name] = src.withDefaults()
	}
}

func (s SourceConfig) withDefaults() SourceConfig {
	if s.Type == "" {
		s.Type = "tv"
	}
	if s.Priority == "" {
		s.Priority = "normal"
	}
	if s.Timeout == 0 {
		s.Timeout = 60 * time.Second
	}
	return s
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable
// values, collecting the names it could not resolve.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		missing = append(missing, varName)
		return match
	})
	return out, missing
}
