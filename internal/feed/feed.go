// Package feed normalizes release announcements from remote indexers
// into a common Item shape consumed by the scheduler.
package feed

import (
	"context"
	"errors"

	"github.com/vmunix/mediarover/pkg/episode"
)

var (
	// ErrInvalidRemoteData indicates a feed response that could not be
	// parsed.
	ErrInvalidRemoteData = errors.New("feed: invalid remote data")

	// ErrURLRetrieval indicates an HTTP failure talking to an indexer.
	ErrURLRetrieval = errors.New("feed: url retrieval failed")
)

// Priority is the scheduling priority an item carries into the queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityForce  Priority = "force"
)

// Integer returns the SABnzbd wire encoding of the priority.
func (p Priority) Integer() int {
	switch p {
	case PriorityLow:
		return -1
	case PriorityHigh:
		return 1
	case PriorityForce:
		return 2
	default:
		return 0
	}
}

// Item is a pending decision record from a feed or the delayed store.
type Item struct {
	Title    string
	URL      string
	ReportID string // set by report-id style indexers, empty otherwise
	Type     string
	Priority Priority
	Quality  episode.Quality
	SourceID string
	Size     int64
	Delay    int
}

// Episode parses the item title into an episode identity carrying the
// item's declared quality. Report-id items use the report title
// grammar, everything else the standard release grammar.
func (i Item) Episode() (episode.Episode, error) {
	var ep episode.Episode
	var err error
	if i.ReportID != "" {
		ep, err = ParseReportTitle(i.Title)
	} else {
		ep, err = episode.Parse(i.Title)
	}
	if err != nil {
		return episode.Episode{}, err
	}
	ep.Quality = i.Quality
	return ep, nil
}

// Adapter is implemented by each indexer client. SourceID must be
// stable across runs; it is persisted with in-progress downloads to
// pick the right parser at sort time.
type Adapter interface {
	SourceID() string
	Items(ctx context.Context) ([]Item, error)
}
