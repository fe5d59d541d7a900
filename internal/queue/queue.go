// Package queue talks to the newsreader download queue. The scheduler
// uses it to see what is already downloading and to hand new items
// over for download.
package queue

import (
	"context"
	"errors"

	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/pkg/episode"
)

var (
	// ErrQueueRetrieval wraps failures talking to the queue API.
	ErrQueueRetrieval = errors.New("queue: retrieval failed")

	// ErrQueueInsertion is returned when the queue rejects a download.
	ErrQueueInsertion = errors.New("queue: insertion failed")

	// ErrQueueDeletion is returned when a job cannot be removed.
	ErrQueueDeletion = errors.New("queue: deletion failed")

	// ErrUnsupportedQueue is returned when the remote daemon is too old
	// to drive over its API.
	ErrUnsupportedQueue = errors.New("queue: unsupported daemon version")
)

// Job is one entry currently in the download queue.
type Job struct {
	ID        string
	Title     string
	Category  string
	ReportID  string // newzbin message id, empty for plain nzb jobs
	Size      int64  // bytes
	Remaining int64  // bytes left to download
	Episode   episode.Episode
}

// Queue is the transfer surface of a newsreader queue.
type Queue interface {
	// Jobs returns the current queue contents, filtered to the
	// category this instance manages.
	Jobs(ctx context.Context) ([]Job, error)

	// Enqueue schedules a feed item for download.
	Enqueue(ctx context.Context, item feed.Item) error

	// Remove drops a job from the queue.
	Remove(ctx context.Context, job Job) error

	// Processed reports whether the item's nzb has already passed
	// through the queue.
	Processed(item feed.Item) bool
}

// InQueue reports whether an episode matching the candidate is already
// downloading.
func InQueue(ctx context.Context, q Queue, ep episode.Episode) (bool, error) {
	_, ok, err := JobFor(ctx, q, ep)
	return ok, err
}

// JobFor returns the queued job holding the given episode, if any.
func JobFor(ctx context.Context, q Queue, ep episode.Episode) (Job, bool, error) {
	jobs, err := q.Jobs(ctx)
	if err != nil {
		return Job{}, false, err
	}
	for _, job := range jobs {
		if job.Episode.Equal(ep) {
			return job, true, nil
		}
	}
	return Job{}, false, nil
}
