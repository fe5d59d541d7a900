package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmunix/mediarover/internal/migrations"
)

// ErrSchemaMigration indicates a migration could not be applied.
var ErrSchemaMigration = errors.New("schema migration failed")

// Migrate moves the schema to target. With rollback set, target must
// be below the current version and the down scripts are applied in
// reverse order. The whole walk runs under an exclusive transaction.
func (s *Store) Migrate(target int, rollback bool) error {
	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}

	all := migrations.All()
	if target < 0 || target > len(all) {
		return fmt.Errorf("%w: no migration for version %d", ErrSchemaMigration, target)
	}

	if rollback {
		if target >= current {
			return fmt.Errorf("%w: rollback target %d not below current version %d", ErrSchemaMigration, target, current)
		}
	} else if target < current {
		return fmt.Errorf("%w: store at version %d is newer than target %d", ErrSchemaMigration, current, target)
	}
	if target == current {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA locking_mode = EXCLUSIVE"); err != nil {
		return fmt.Errorf("acquiring exclusive lock: %w", err)
	}

	if rollback {
		for v := current; v > target; v-- {
			if _, err := tx.Exec(all[v-1].Down); err != nil {
				return fmt.Errorf("%w: reverting %s: %v", ErrSchemaMigration, all[v-1].Name, err)
			}
		}
	} else {
		for v := current + 1; v <= target; v++ {
			if _, err := tx.Exec(all[v-1].Up); err != nil {
				return fmt.Errorf("%w: applying %s: %v", ErrSchemaMigration, all[v-1].Name, err)
			}
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}

// Backup copies the store aside as
// metadata.<YYYYMMDDHHMMSS>.rev-<schema>.db next to the original and
// returns the backup path.
func (s *Store) Backup() (string, error) {
	if s.path == ":memory:" {
		return "", errors.New("cannot back up an in-memory store")
	}

	version, err := s.SchemaVersion()
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("metadata.%s.rev-%d.db", time.Now().Format("20060102150405"), version)
	dest := filepath.Join(filepath.Dir(s.path), name)

	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("opening store for backup: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return dest, nil
}
