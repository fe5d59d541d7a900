package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediarover/internal/config"
)

var version = "dev"

var configDir string

var rootCmd = &cobra.Command{
	Use:   "mediarover",
	Short: "Automated TV episode download scheduler and sorter",
	Long: `mediarover - automated TV episode download scheduler and sorter

Watches newznab and newzbin feeds for episodes missing from the
library, hands them to SABnzbd, and files completed downloads into
the configured series layout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// usageError exits with code 2 instead of 1.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// rangeArgs mirrors the cobra validator but reports usage problems
// with exit code 2.
func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		switch {
		case len(args) >= min && len(args) <= max:
			return nil
		case max == 0:
			return usageErrorf("accepts no arguments, received %d", len(args))
		default:
			return usageErrorf("accepts up to %d args, received %d", max, len(args))
		}
	}
}

func Execute() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "path to application configuration directory")
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("mediarover {{.Version}}\n")
}

// loadConfig discovers the config directory and parses mediarover.conf.
func loadConfig() (string, *config.Config, error) {
	dir, err := config.Discover(configDir)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(config.FilePath(dir))
	if err != nil {
		return "", nil, err
	}
	return dir, cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel(cfg.Logging.Level)}))
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
