package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/vmunix/mediarover/pkg/episode"
)

// Newzbin polls a report-id style indexer whose titles follow the
// "<series> - <numbering> - <title>" grammar and whose entries carry a
// numeric report ID usable for fetch-by-id enqueueing.
type Newzbin struct {
	label      string
	url        string
	itemType   string
	quality    episode.Quality
	priority   Priority
	delay      int
	httpClient *http.Client
	log        *slog.Logger
}

// NewNewzbin creates a report-id feed adapter.
func NewNewzbin(opts NewznabOptions, log *slog.Logger) *Newzbin {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Newzbin{
		label:    opts.Label,
		url:      opts.URL,
		itemType: opts.Type,
		quality:  opts.Quality,
		priority: opts.Priority,
		delay:    opts.Delay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With("component", "feed", "adapter", "newzbin", "label", opts.Label),
	}
}

func (n *Newzbin) SourceID() string {
	return "newzbin"
}

var reportIDPattern = regexp.MustCompile(`(\d+)/?$`)

// Items fetches and normalizes the report feed.
func (n *Newzbin) Items(ctx context.Context) ([]Item, error) {
	channel, err := fetchRSS(ctx, n.httpClient, n.url)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(channel.Items))
	for _, entry := range channel.Items {
		item, err := n.normalize(entry)
		if err != nil {
			n.log.Warn("skipping feed entry", "title", entry.Title, "error", err)
			continue
		}
		items = append(items, item)
	}

	n.log.Debug("feed fetched", "items", len(items))
	return items, nil
}

func (n *Newzbin) normalize(entry rssItem) (Item, error) {
	if entry.Title == "" {
		return Item{}, fmt.Errorf("%w: entry without title", ErrInvalidRemoteData)
	}

	id := entry.GUID
	if id == "" {
		id = entry.Link
	}
	m := reportIDPattern.FindStringSubmatch(strings.TrimSuffix(id, "/"))
	if m == nil {
		return Item{}, fmt.Errorf("%w: entry %q without report id", ErrInvalidRemoteData, entry.Title)
	}

	return Item{
		Title:    entry.Title,
		URL:      entry.Link,
		ReportID: m[1],
		Type:     n.itemType,
		Priority: n.priority,
		Quality:  n.quality,
		SourceID: n.SourceID(),
		Size:     entry.size(),
		Delay:    n.delay,
	}, nil
}

// ParseReportTitle reads the report title grammar used by report-id
// indexers: the series is everything before the first " - ", the
// numbering sits in the second segment, and an optional third segment
// carries the episode title.
func ParseReportTitle(title string) (episode.Episode, error) {
	ep, err := episode.Parse(title)
	if err != nil {
		return episode.Episode{}, err
	}

	series, rest, found := strings.Cut(title, " - ")
	if !found {
		return ep, nil
	}
	ep.Series = strings.TrimSpace(series)
	if _, episodeTitle, ok := strings.Cut(rest, " - "); ok {
		ep.Title = strings.TrimSpace(episodeTitle)
	}
	for i := range ep.Episodes {
		ep.Episodes[i].Series = ep.Series
	}
	return ep, nil
}
