package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/internal/sorter"
	"github.com/vmunix/mediarover/pkg/episode"
)

var sortCmd = &cobra.Command{
	Use:   "episode-sort PATH [QUALITY | NZB JOB REPORT_ID CATEGORY GROUP STATUS]",
	Short: "File a completed download into the TV library",
	Long: `episode-sort files a completed download into the TV library.

Invoked by hand with a download directory (and an optional quality
override), or by the newsreader's post-processing hook with the full
batch argument list. A newsreader that elides the empty report id may
pass six arguments; the missing field is filled in.`,
	Args: batchArgs,
	RunE: runSort,
}

func init() {
	rootCmd.AddCommand(sortCmd)
	sortCmd.Flags().Bool("dry-run", false, "report what would happen without moving anything")
}

func batchArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 1, 2, 6, 7:
		return nil
	}
	return usageErrorf("accepts PATH, PATH QUALITY, or the 6/7-argument batch form, received %d args", len(args))
}

// parseRequest maps the positional arguments onto a sort request. The
// seven-argument batch form is final_dir, nzb, job, report_id,
// category, group, status; the six-argument form omits report_id.
func parseRequest(args []string) (sorter.Request, error) {
	req := sorter.Request{Path: args[0]}

	switch len(args) {
	case 1:
		return req, nil
	case 2:
		quality, err := episode.ParseQuality(args[1])
		if err != nil {
			return req, usageErrorf("bad quality override: %v", err)
		}
		req.Quality = quality
		return req, nil
	case 6:
		args = []string{args[0], args[1], args[2], "", args[3], args[4], args[5]}
	}

	req.NZB = args[1]
	req.JobName = args[2]
	req.ReportID = args[3]
	req.Category = args[4]
	req.Group = args[5]
	status, err := strconv.Atoi(args[6])
	if err != nil {
		return req, usageErrorf("bad status %q: %v", args[6], err)
	}
	req.Status = status
	return req, nil
}

func runSort(cmd *cobra.Command, args []string) error {
	req, err := parseRequest(args)
	if err != nil {
		return err
	}
	req.DryRun, _ = cmd.Flags().GetBool("dry-run")

	dir, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The log is teed into a buffer so a fatal sort can leave a
	// sort.log behind in the download directory.
	var buf bytes.Buffer
	out := io.Writer(os.Stdout)
	if cfg.Logging.GenerateSortLog {
		out = io.MultiWriter(os.Stdout, &buf)
	}
	log := newLogger(out, cfg)

	store, err := metadata.Open(config.MetadataPath(dir))
	if err != nil {
		return err
	}
	defer store.Close()

	index, err := library.NewIndex(cfg, store, log)
	if err != nil {
		return err
	}

	err = sorter.New(cfg, index, store, log).Sort(req)
	if errors.Is(err, sorter.ErrCleanup) {
		log.Warn("sorted, but could not remove download directory", "error", err)
		return nil
	}
	if err != nil {
		log.Error("sort failed", "error", err)
		if cfg.Logging.GenerateSortLog {
			writeSortLog(req.Path, buf.Bytes(), log)
		}
		return err
	}
	return nil
}

func writeSortLog(dir string, contents []byte, log *slog.Logger) {
	path := filepath.Join(dir, "sort.log")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		log.Warn("unable to write sort log", "path", path, "error", err)
	}
}
