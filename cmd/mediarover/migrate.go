package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/metadata"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-metadata [SCHEMA_VERSION]",
	Short: "Migrate the metadata database schema",
	Long: `migrate-metadata walks the metadata database schema to the given
version. With --rollback the target must be below the current
version. --version prints the live schema version and exits.`,
	Args: rangeArgs(0, 1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("rollback", false, "revert to an earlier schema version")
	migrateCmd.Flags().Bool("backup", false, "snapshot the database before migrating")
	migrateCmd.Flags().Bool("version", false, "print the current schema version and exit")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rollback, _ := cmd.Flags().GetBool("rollback")
	backup, _ := cmd.Flags().GetBool("backup")
	showVersion, _ := cmd.Flags().GetBool("version")

	dir, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stdout, cfg)

	store, err := metadata.OpenForMigration(config.MetadataPath(dir))
	if err != nil {
		return err
	}
	defer store.Close()

	if showVersion {
		version, err := store.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d\n", version)
		return nil
	}

	if len(args) == 0 {
		return usageErrorf("SCHEMA_VERSION is required unless --version is given")
	}
	target, err := strconv.Atoi(args[0])
	if err != nil {
		return usageErrorf("bad schema version %q: %v", args[0], err)
	}

	if backup {
		path, err := store.Backup()
		if err != nil {
			return err
		}
		log.Info("backed up metadata store", "path", path)
	}

	if err := store.Migrate(target, rollback); err != nil {
		return err
	}
	version, err := store.SchemaVersion()
	if err != nil {
		return err
	}
	log.Info("metadata store migrated", "version", version)
	return nil
}
