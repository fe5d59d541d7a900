// Package metadata persists per-episode quality, in-progress
// downloads, and delayed release items across runs.
package metadata

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/mediarover/internal/migrations"
)

var (
	// ErrNotFound indicates the requested row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a foreign key or check constraint violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrLocked indicates another process holds the store.
	ErrLocked = errors.New("metadata store locked by another process")

	// ErrSchemaMismatch indicates the on-disk schema version differs
	// from the version this build expects.
	ErrSchemaMismatch = errors.New("metadata schema version mismatch")
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store is the embedded metadata database, held under an exclusive
// process lock for the lifetime of a run.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open opens the store at path, creating and initializing it on first
// use. An existing store whose schema version differs from the
// expected version is refused; run migrate-metadata first.
func Open(path string) (*Store, error) {
	s, err := openStore(path)
	if err != nil {
		return nil, err
	}

	version, err := s.SchemaVersion()
	if err != nil {
		s.Close()
		return nil, err
	}

	if version == 0 {
		if err := s.Migrate(migrations.Expected, false); err != nil {
			s.Close()
			return nil, fmt.Errorf("initializing metadata store: %w", err)
		}
		return s, nil
	}

	if version != migrations.Expected {
		s.Close()
		return nil, fmt.Errorf("%w: store at version %d, expected %d; run migrate-metadata",
			ErrSchemaMismatch, version, migrations.Expected)
	}
	return s, nil
}

// OpenForMigration opens the store without enforcing the schema
// version, for use by the migrator only.
func OpenForMigration(path string) (*Store, error) {
	return openStore(path)
}

func openStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating metadata directory: %w", err)
		}
	}

	var lock *flock.Flock
	if path != ":memory:" {
		lock = flock.New(path + ".lock")
		held, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("locking metadata store: %w", err)
		}
		if !held {
			return nil, ErrLocked
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		if lock != nil {
			lock.Unlock()
		}
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// in-memory stores coherent across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		if lock != nil {
			lock.Unlock()
		}
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &Store{db: db, lock: lock, path: path}, nil
}

// Close releases the database handle and the process lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion reads the store's schema version pragma.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// mapSQLiteError converts SQLite errors to the package sentinels.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check the message for
	// constraint violations.
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}
