package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/library"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/internal/registrar"
)

var setQualityCmd = &cobra.Command{
	Use:   "set-quality [SERIES [SEASON [EPISODE]]]",
	Short: "Record quality bands for episodes already on disk",
	Long: `set-quality populates the metadata database with quality bands for
episodes already in the library.

Files with an extension named by --low/--medium/--high are assigned
without prompting; the rest are grouped by approximate size and put
to an interactive prompt. Positional arguments narrow the run to one
series, season, or episode.`,
	Args: rangeArgs(0, 3),
	RunE: runSetQuality,
}

func init() {
	rootCmd.AddCommand(setQualityCmd)
	setQualityCmd.Flags().StringArrayP("low", "l", nil, "mark extension as low quality")
	setQualityCmd.Flags().StringArrayP("medium", "m", nil, "mark extension as medium quality")
	setQualityCmd.Flags().StringArrayP("high", "H", nil, "mark extension as high quality")
	setQualityCmd.Flags().Bool("no-series-prompt", false, "don't ask for confirmation before processing each series")
}

func runSetQuality(cmd *cobra.Command, args []string) error {
	opts := registrar.Options{SeriesPrompt: true}
	opts.Low, _ = cmd.Flags().GetStringArray("low")
	opts.Medium, _ = cmd.Flags().GetStringArray("medium")
	opts.High, _ = cmd.Flags().GetStringArray("high")
	if noPrompt, _ := cmd.Flags().GetBool("no-series-prompt"); noPrompt {
		opts.SeriesPrompt = false
	}

	if len(args) > 0 {
		opts.Series = args[0]
	}
	if len(args) > 1 {
		season, err := strconv.Atoi(args[1])
		if err != nil {
			return usageErrorf("bad season %q: %v", args[1], err)
		}
		opts.Season = season
	}
	if len(args) > 2 {
		number, err := strconv.Atoi(args[2])
		if err != nil {
			return usageErrorf("bad episode %q: %v", args[2], err)
		}
		opts.Episode = number
	}

	dir, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg)

	store, err := metadata.Open(config.MetadataPath(dir))
	if err != nil {
		return err
	}
	defer store.Close()

	index, err := library.NewIndex(cfg, store, log)
	if err != nil {
		return err
	}

	prompt := registrar.NewTerminal(os.Stdin, os.Stdout)
	err = registrar.New(cfg, index, store, prompt, log).Run(opts)
	if errors.Is(err, library.ErrUnknownSeries) {
		return &usageError{err: err}
	}
	return err
}
