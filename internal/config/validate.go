package config

import (
	"fmt"

	"github.com/vmunix/mediarover/pkg/episode"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validPriorities = map[string]bool{
	"low": true, "normal": true, "high": true, "force": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if len(c.TV.Roots) == 0 {
		errs = append(errs, "tv.tv_root: at least one library root must be configured")
	}

	if !validLogLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level: must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}

	errs = append(errs, c.validateQuality()...)

	for name, filter := range c.TV.Filter {
		if filter.EpisodeLimit < 0 {
			errs = append(errs, fmt.Sprintf("tv.filter.%s.episode_limit: must be >= 0, got %d", name, filter.EpisodeLimit))
		}
		if filter.DesiredQuality != "" {
			if _, err := episode.ParseQuality(filter.DesiredQuality); err != nil {
				errs = append(errs, fmt.Sprintf("tv.filter.%s.desired_quality: %v", name, err))
			}
		}
	}

	if len(c.Source.Newznab) == 0 && len(c.Source.Newzbin) == 0 {
		errs = append(errs, "source: at least one feed source must be configured")
	}
	errs = append(errs, validateSources("newznab", c.Source.Newznab)...)
	errs = append(errs, validateSources("newzbin", c.Source.Newzbin)...)

	if c.Queue.SABnzbd == nil {
		errs = append(errs, "queue: a download queue must be configured")
	} else {
		if c.Queue.SABnzbd.Root == "" {
			errs = append(errs, "queue.sabnzbd.root: required")
		}
		if c.Queue.SABnzbd.APIKey == "" {
			errs = append(errs, "queue.sabnzbd.api_key: required")
		}
	}

	return errs
}

func (c *Config) validateQuality() []string {
	var errs []string
	quality := c.TV.Library.Quality

	if quality.Managed && quality.Desired == "" {
		errs = append(errs, "tv.library.quality.desired: required when managed quality is enabled")
	}
	if quality.Desired != "" {
		if _, err := episode.ParseQuality(quality.Desired); err != nil {
			errs = append(errs, fmt.Sprintf("tv.library.quality.desired: %v", err))
		}
	}
	for _, s := range quality.Acceptable {
		if _, err := episode.ParseQuality(s); err != nil {
			errs = append(errs, fmt.Sprintf("tv.library.quality.acceptable: %v", err))
		}
	}
	for band := range quality.Extension {
		if _, err := episode.ParseQuality(band); err != nil {
			errs = append(errs, fmt.Sprintf("tv.library.quality.extension: %v", err))
		}
	}
	return errs
}

func validateSources(adapter string, sources map[string]SourceConfig) []string {
	var errs []string
	for label, src := range sources {
		if src.URL == "" {
			errs = append(errs, fmt.Sprintf("source.%s.%s.url: required", adapter, label))
		}
		if !validPriorities[src.Priority] {
			errs = append(errs, fmt.Sprintf("source.%s.%s.priority: must be one of low, normal, high, force; got %q", adapter, label, src.Priority))
		}
		if src.Delay < 0 {
			errs = append(errs, fmt.Sprintf("source.%s.%s.delay: must be >= 0, got %d", adapter, label, src.Delay))
		}
		if src.Quality != "" {
			if _, err := episode.ParseQuality(src.Quality); err != nil {
				errs = append(errs, fmt.Sprintf("source.%s.%s.quality: %v", adapter, label, err))
			}
		}
	}
	return errs
}
