package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vmunix/mediarover/pkg/episode"
)

// Newznab polls the saved-search RSS endpoint of a Newznab-style
// indexer.
type Newznab struct {
	label      string
	url        string
	itemType   string
	quality    episode.Quality
	priority   Priority
	delay      int
	httpClient *http.Client
	log        *slog.Logger
}

// NewznabOptions configures a Newznab adapter.
type NewznabOptions struct {
	Label    string
	URL      string
	Type     string
	Quality  episode.Quality
	Priority Priority
	Delay    int
	Timeout  time.Duration
}

// NewNewznab creates an adapter for one configured indexer feed.
func NewNewznab(opts NewznabOptions, log *slog.Logger) *Newznab {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Newznab{
		label:    opts.Label,
		url:      opts.URL,
		itemType: opts.Type,
		quality:  opts.Quality,
		priority: opts.Priority,
		delay:    opts.Delay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With("component", "feed", "adapter", "newznab", "label", opts.Label),
	}
}

// SourceID identifies the adapter family for parser selection at sort
// time.
func (n *Newznab) SourceID() string {
	return "newznab"
}

// Items fetches and normalizes the feed. Items that cannot be
// normalized individually are logged and skipped.
func (n *Newznab) Items(ctx context.Context) ([]Item, error) {
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

func (n *Newznab) normalize(entry rssItem) (Item, error) {
	if entry.Title == "" {
		return Item{}, fmt.Errorf("%w: entry without title", ErrInvalidRemoteData)
	}
	url := entry.Link
	if url == "" {
		url = entry.Enclosure.URL
	}
	if url == "" {
		return Item{}, fmt.Errorf("%w: entry %q without download url", ErrInvalidRemoteData, entry.Title)
	}
	return Item{
		Title:    entry.Title,
		URL:      url,
		Type:     n.itemType,
		Priority: n.priority,
		Quality:  n.quality,
		SourceID: n.SourceID(),
		Size:     entry.size(),
		Delay:    n.delay,
	}, nil
}

// RSS response structures shared by the adapters.
type rssResponse struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string        `xml:"title"`
	GUID      string        `xml:"guid"`
	Link      string        `xml:"link"`
	Size      int64         `xml:"size"`
	Enclosure rssEnclosure  `xml:"enclosure"`
	Attrs     []newznabAttr `xml:"http://www.newznab.com/DTD/2010/feeds/attributes/ attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
}

type newznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// size resolves the release size from the enclosure, the item element,
// or the newznab attribute block, in that order.
func (r rssItem) size() int64 {
	if r.Enclosure.Length > 0 {
		return r.Enclosure.Length
	}
	if r.Size > 0 {
		return r.Size
	}
	for _, attr := range r.Attrs {
		if attr.Name == "size" {
			size, _ := strconv.ParseInt(attr.Value, 10, 64)
			return size
		}
	}
	return 0
}

func fetchRSS(ctx context.Context, client *http.Client, url string) (rssChannel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rssChannel{}, fmt.Errorf("%w: %v", ErrURLRetrieval, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return rssChannel{}, fmt.Errorf("%w: %v", ErrURLRetrieval, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return rssChannel{}, fmt.Errorf("%w: unexpected status %d", ErrURLRetrieval, resp.StatusCode)
	}

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return rssChannel{}, fmt.Errorf("%w: %v", ErrInvalidRemoteData, err)
	}
	return rss.Channel, nil
}
