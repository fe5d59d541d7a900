package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/internal/queue"
	"github.com/vmunix/mediarover/internal/scheduler"
	"github.com/vmunix/mediarover/pkg/episode"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Poll feeds and queue missing episodes for download",
	Args:  rangeArgs(0, 0),
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().Bool("dry-run", false, "evaluate feeds without queueing or recording anything")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	dir, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stdout, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := metadata.Open(config.MetadataPath(dir))
	if err != nil {
		return err
	}
	defer store.Close()

	index, err := library.NewIndex(cfg, store, log)
	if err != nil {
		return err
	}

	q, err := queue.NewSABnzbd(*cfg.Queue.SABnzbd, cfg.TV.Library.Quality.DesiredQuality(), store, log)
	if err != nil {
		return err
	}
	if err := q.Verify(ctx); err != nil {
		return fmt.Errorf("checking queue version: %w", err)
	}

	s := scheduler.New(cfg, index, store, q, buildAdapters(cfg, log), log)
	s.DryRun = dryRun
	return s.Run(ctx)
}

// buildAdapters turns the [source] sections into feed adapters,
// ordered by adapter family then label so runs are deterministic.
func buildAdapters(cfg *config.Config, log *slog.Logger) []feed.Adapter {
	var adapters []feed.Adapter
	for _, label := range sortedLabels(cfg.Source.Newznab) {
		adapters = append(adapters, feed.NewNewznab(adapterOptions(label, cfg.Source.Newznab[label]), log))
	}
	for _, label := range sortedLabels(cfg.Source.Newzbin) {
		adapters = append(adapters, feed.NewNewzbin(adapterOptions(label, cfg.Source.Newzbin[label]), log))
	}
	return adapters
}

func adapterOptions(label string, src config.SourceConfig) feed.NewznabOptions {
	quality, _ := episode.ParseQuality(src.Quality)
	return feed.NewznabOptions{
		Label:    label,
		URL:      src.URL,
		Type:     src.Type,
		Quality:  quality,
		Priority: feed.Priority(src.Priority),
		Delay:    src.Delay,
		Timeout:  src.Timeout,
	}
}

func sortedLabels(sources map[string]config.SourceConfig) []string {
	labels := make([]string, 0, len(sources))
	for label := range sources {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
