// Package scheduler is the decision core: it reconciles feeds, the
// download queue, the delayed-item store, and the on-disk library into
// a set of enqueue and drop actions, then commits them.
package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/internal/queue"
	"github.com/vmunix/mediarover/pkg/episode"
)

// Metadata is the persistence surface one scheduler run mutates.
type Metadata interface {
	ListInProgress() ([]metadata.InProgress, error)
	DeleteInProgress(titles ...string) error
	AddInProgress(item feed.Item) error
	GetDelayedItems() ([]feed.Item, error)
	GetActionableDelayedItems() ([]feed.Item, error)
	AddDelayedItem(item feed.Item) error
	DeleteStaleDelayedItems() error
	ReduceItemDelay() error
}

// Scheduler runs the acquisition pipeline.
type Scheduler struct {
	cfg      *config.Config
	index    *library.Index
	store    Metadata
	queue    queue.Queue
	adapters []feed.Adapter
	log      *slog.Logger

	// DryRun evaluates every gate but replaces the commit phase with
	// logging.
	DryRun bool
}

func New(cfg *config.Config, index *library.Index, store Metadata, q queue.Queue, adapters []feed.Adapter, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		index:    index,
		store:    store,
		queue:    q,
		adapters: adapters,
		log:      log.With("component", "scheduler"),
	}
}

// Run executes one scheduling pass: reconcile stale in-progress rows,
// evaluate delayed items then every feed item through the gate
// pipeline, and commit the resulting actions.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.reconcileInProgress(ctx); err != nil {
		return err
	}

	delayed, err := s.store.GetActionableDelayedItems()
	if err != nil {
		return err
	}
	items := append(delayed, feed.FetchAll(ctx, s.adapters, s.log)...)

	var scheduled []feed.Item
	var dropFromQueue []queue.Job
	for _, item := range items {
		scheduled, dropFromQueue, err = s.processItem(ctx, item, scheduled, dropFromQueue)
		if err != nil {
			return err
		}
	}

	if s.DryRun {
		s.log.Info("dry run, not committing", "candidates", len(scheduled))
		for _, item := range scheduled {
			s.log.Info("eligible for download", "title", item.Title)
		}
		return nil
	}
	return s.commit(ctx, scheduled, dropFromQueue)
}

// reconcileInProgress deletes in-progress rows whose job has left the
// queue: the user removed the download externally.
func (s *Scheduler) reconcileInProgress(ctx context.Context) error {
	if !s.cfg.TV.Library.Quality.Managed {
		return nil
	}
	rows, err := s.store.ListInProgress()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	jobs, err := s.queue.Jobs(ctx)
	if err != nil {
		return err
	}
	queued := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		queued[job.Title] = true
	}
	var stale []string
	for _, row := range rows {
		if !queued[row.Title] {
			stale = append(stale, row.Title)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	s.log.Debug("removing stale in-progress rows", "count", len(stale))
	return s.store.DeleteInProgress(stale...)
}

// processItem runs one item through the gate pipeline, returning the
// updated scheduled and drop sets. Gate skips are not errors.
func (s *Scheduler) processItem(ctx context.Context, item feed.Item, scheduled []feed.Item, drop []queue.Job) ([]feed.Item, []queue.Job, error) {
	log := s.log.With("title", item.Title)

	ep, err := item.Episode()
	if err != nil {
		log.Debug("skipping, unparseable title", "error", err)
		return scheduled, drop, nil
	}

	series, err := s.index.Series(ep.Series)
	if err != nil {
		if errors.Is(err, library.ErrUnknownSeries) {
			log.Debug("skipping, not watching series")
			return scheduled, drop, nil
		}
		return scheduled, drop, err
	}

	if series.IgnoresSeason(ep.Season) {
		log.Info("skipping, ignored season", "season", ep.Season)
		return scheduled, drop, nil
	}

	if ep.Kind == episode.KindMulti && !s.cfg.TV.MultiEpisode.Allow {
		log.Debug("skipping, multi-episode downloads disallowed")
		return scheduled, drop, nil
	}

	wanted, err := series.ShouldDownload(ep)
	if err != nil {
		return scheduled, drop, err
	}
	if !wanted {
		log.Info("skipping, nothing desirable on offer")
		return scheduled, drop, nil
	}

	// An item at the desired band skips its source's delay policy.
	if item.Delay > 0 && item.Quality == series.Desired() {
		log.Info("item meets desired quality, ignoring schedule delay")
		item.Delay = 0
	}

	if !series.Archive {
		newer, err := series.IsNewerThanCurrent(ep)
		if err != nil {
			return scheduled, drop, err
		}
		if !newer {
			// Desirability passed, so the episode is missing or an
			// upgrade. If it is not on disk at all it is an old episode
			// this unarchived series no longer wants.
			onDisk, err := series.FindEpisodeOnDisk(ep, true)
			if err != nil {
				return scheduled, drop, err
			}
			if len(onDisk) == 0 {
				log.Debug("skipping, older than newest episode on disk")
				return scheduled, drop, nil
			}
		}
	}

	job, inQueue, err := queue.JobFor(ctx, s.queue, ep)
	if err != nil {
		return scheduled, drop, err
	}
	if inQueue {
		better, err := series.ShouldDownload(ep, job.Episode)
		if err != nil {
			return scheduled, drop, err
		}
		if !better {
			log.Info("skipping, already in download queue")
			return scheduled, drop, nil
		}
		if item.Size < job.Remaining {
			if item.Delay == 0 {
				drop = append(drop, job)
			}
			// A delayed item leaves the queued job alone; it will be
			// re-evaluated once its delay expires.
		} else {
			// More left to fetch than the queued job; give the job a
			// chance to finish and revisit next run.
			item.Delay = 1
		}
	}

	if s.queue.Processed(item) {
		log.Info("skipping, already processed by queue")
		return scheduled, drop, nil
	}

	replaceAt := -1
	for i, old := range scheduled {
		oldEp, err := old.Episode()
		if err != nil || !oldEp.Equal(ep) {
			continue
		}
		better, err := series.ShouldDownload(ep, oldEp)
		if err != nil {
			return scheduled, drop, err
		}
		switch {
		case item.Delay > 0:
			if old.Delay > 0 && better {
				replaceAt = i
			} else {
				log.Info("skipping, already scheduled for download")
				return scheduled, drop, nil
			}
		case old.Delay > 0:
			replaceAt = i
		case better:
			replaceAt = i
		default:
			log.Info("skipping, already scheduled for download")
			return scheduled, drop, nil
		}
		break
	}

	log.Info("adding to download list")
	if replaceAt >= 0 {
		scheduled[replaceAt] = item
	} else {
		scheduled = append(scheduled, item)
	}
	return scheduled, drop, nil
}

// commit applies the run's decisions: queue removals first, then the
// immediate enqueues, then delayed-store bookkeeping, with the delay
// decrement as the final mutation.
func (s *Scheduler) commit(ctx context.Context, scheduled []feed.Item, drop []queue.Job) error {
	for _, job := range drop {
		if err := s.queue.Remove(ctx, job); err != nil {
			s.log.Warn("unable to remove job from queue", "title", job.Title, "error", err)
		}
	}

	if err := s.store.DeleteStaleDelayedItems(); err != nil {
		return err
	}

	var delayed []feed.Item
	for _, item := range scheduled {
		if item.Delay > 0 {
			delayed = append(delayed, item)
			continue
		}
		if err := s.queue.Enqueue(ctx, item); err != nil {
			s.log.Warn("unable to schedule item for download", "title", item.Title, "error", err)
			continue
		}
		if s.cfg.TV.Library.Quality.Managed {
			if err := s.store.AddInProgress(item); err != nil {
				return err
			}
		}
	}

	if len(delayed) > 0 {
		s.log.Info("deferring items with a schedule delay", "count", len(delayed))
		existing, err := s.store.GetDelayedItems()
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(existing))
		for _, item := range existing {
			known[item.Title] = true
		}
		for _, item := range delayed {
			if known[item.Title] {
				s.log.Debug("already delayed", "title", item.Title)
				continue
			}
			if err := s.store.AddDelayedItem(item); err != nil {
				return err
			}
		}
	}

	return s.store.ReduceItemDelay()
}
