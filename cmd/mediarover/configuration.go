package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediarover/internal/config"
)

var configurationCmd = &cobra.Command{
	Use:   "configuration [TV_ROOT]",
	Short: "Generate or check the application configuration",
	Long: `configuration manages the mediarover.conf file.

With --write, a commented default configuration is written to the
config directory; an optional TV_ROOT argument (comma-separated for
several roots) presets the library location. Without --write, the
existing configuration is loaded and checked.`,
	Args: rangeArgs(0, 1),
	RunE: runConfiguration,
}

func init() {
	rootCmd.AddCommand(configurationCmd)
	configurationCmd.Flags().Bool("write", false, "generate a default configuration file")
}

func runConfiguration(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")

	if write {
		dir := configDir
		if dir == "" {
			dir = config.DefaultDir()
		}
		path := config.FilePath(dir)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite existing config at %s", path)
		}
		var roots []string
		if len(args) > 0 {
			roots = strings.Split(args[0], ",")
		}
		if err := config.WriteDefault(path, roots...); err != nil {
			return err
		}
		fmt.Printf("wrote default configuration to %s\n", path)
		return nil
	}

	dir, _, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("configuration at %s is valid\n", config.FilePath(dir))
	return nil
}
