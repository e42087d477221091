package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

// Store is the transactional persistence layer. It owns the song corpus and
// the collections/memberships tables. Every public operation wraps exactly
// one SQL transaction; there is no retry and no internal locking beyond the
// engine's own transaction serialization.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open opens (or creates) the catalog database at path.
// The handle is meant to be opened once at startup and closed at shutdown.
// An advisory file lock next to the database enforces the single-writer
// model: a second process fails fast instead of interleaving writes.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageOpen,
			fmt.Sprintf("failed to create directory %s", dir), err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageOpen, "failed to acquire store lock", err)
	}
	if !locked {
		return nil, sberrors.New(sberrors.ErrCodeStorageLocked,
			fmt.Sprintf("store at %s is in use by another process", path), nil)
	}

	db, err := openDB(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &Store{db: db, path: path, lock: lock}, nil
}

// OpenMemory opens an in-memory store for testing.
func OpenMemory() (*Store, error) {
	db, err := openDB(":memory:")
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: ":memory:"}, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageOpen, "failed to open database", err)
	}

	// Single connection: the storage engine serializes same-store
	// transactions, which is where multi-step operations get their
	// atomicity from (no manual locking in this layer).
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, sberrors.New(sberrors.ErrCodeStorageOpen, "failed to set pragma", err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// initSchema creates the three logical collections. The unique composite
// index on (collection_id, song_number) is the enforcement mechanism for the
// no-duplicate-membership invariant.
func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS songs (
		number INTEGER PRIMARY KEY,
		title  TEXT NOT NULL,
		body   TEXT NOT NULL
	);

	-- AUTOINCREMENT keeps ids monotonically increasing and never reused,
	-- even after deletes.
	CREATE TABLE IF NOT EXISTS collections (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_collections_name ON collections(name);

	CREATE TABLE IF NOT EXISTS song_collections (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL,
		song_number   INTEGER NOT NULL,
		added_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_song_collections_collection
		ON song_collections(collection_id);
	CREATE INDEX IF NOT EXISTS idx_song_collections_song
		ON song_collections(song_number);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_song_collections_pair
		ON song_collections(collection_id, song_number);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	if _, err := db.Exec(schema); err != nil {
		return sberrors.New(sberrors.ErrCodeStorageOpen, "failed to initialize schema", err)
	}
	return nil
}

// withTx executes fn within a single transaction: begin, rollback on error,
// commit on success. Multi-step operations use this to get atomicity from
// the engine's transaction guarantees.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sberrors.New(sberrors.ErrCodeStorageTx, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return sberrors.New(sberrors.ErrCodeStorageTx, "failed to commit transaction", err)
	}
	return nil
}

// Close closes the database and releases the store lock.
func (s *Store) Close() error {
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
