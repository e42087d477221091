package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

// Domain-invariant errors. These are stable values: callers match them with
// errors.Is and map them to user feedback, never by parsing message text.
var (
	// ErrSongAlreadyInCollection is returned when adding a song that is
	// already a member of the target collection.
	ErrSongAlreadyInCollection = sberrors.New(
		sberrors.ErrCodeDuplicateMembership, "song already in collection", nil)

	// ErrLinkNotFound is returned when removing a membership that does
	// not exist.
	ErrLinkNotFound = sberrors.New(
		sberrors.ErrCodeLinkNotFound, "link not found", nil)

	// ErrCollectionNotFound is returned when deleting a collection that
	// does not exist.
	ErrCollectionNotFound = sberrors.New(
		sberrors.ErrCodeCollectionNotFound, "collection not found", nil)
)

// now returns the canonical timestamp format: ISO-8601 UTC.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateCollection inserts a new collection and returns its assigned id.
// Names are not unique; two collections may share one.
func (s *Store) CreateCollection(ctx context.Context, name string) (int64, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, created_at, updated_at)
		VALUES (?, ?, ?)
	`, name, ts, ts)
	if err != nil {
		return 0, sberrors.New(sberrors.ErrCodeStorageTx, "failed to create collection", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, sberrors.New(sberrors.ErrCodeStorageTx, "failed to read collection id", err)
	}
	return id, nil
}

// GetCollections returns all collections ordered by id.
func (s *Store) GetCollections(ctx context.Context) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM collections
		ORDER BY id
	`)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx, "failed to list collections", err)
	}
	defer rows.Close()
	return scanCollections(rows)
}

// GetCollection returns the collection with the given id, or (nil, nil) if
// absent. Absence is not an error.
func (s *Store) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM collections
		WHERE id = ?
	`, id)

	var c Collection
	err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx,
			fmt.Sprintf("failed to read collection %d", id), err)
	}
	return &c, nil
}

// DeleteCollection removes a collection and all of its memberships in one
// transaction: a partial failure never leaves the collection deleted with
// dangling memberships, or vice versa.
func (s *Store) DeleteCollection(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM song_collections WHERE collection_id = ?`, id); err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx,
				fmt.Sprintf("failed to delete memberships of collection %d", id), err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
		if err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx,
				fmt.Sprintf("failed to delete collection %d", id), err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to read rows affected", err)
		}
		if affected == 0 {
			return ErrCollectionNotFound
		}
		return nil
	})
}

// AddSongToCollection links a song to a collection. The duplicate check and
// the insert share one transaction; the unique composite index is a backstop
// that maps to the same domain error if a writer ever slips between them.
func (s *Store) AddSongToCollection(ctx context.Context, collectionID int64, songNumber int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM song_collections
			WHERE collection_id = ? AND song_number = ?
		`, collectionID, songNumber).Scan(&existing)
		if err == nil {
			return ErrSongAlreadyInCollection
		}
		if err != sql.ErrNoRows {
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to check membership", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO song_collections (collection_id, song_number, added_at)
			VALUES (?, ?, ?)
		`, collectionID, songNumber, now())
		if err != nil {
			if isUniqueViolation(err) {
				return ErrSongAlreadyInCollection
			}
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to add song to collection", err)
		}
		return nil
	})
}

// RemoveSongFromCollection looks up the membership by the unique pair and
// deletes it by its own identity.
func (s *Store) RemoveSongFromCollection(ctx context.Context, collectionID int64, songNumber int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM song_collections
			WHERE collection_id = ? AND song_number = ?
		`, collectionID, songNumber).Scan(&id)
		if err == sql.ErrNoRows {
			return ErrLinkNotFound
		}
		if err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to look up membership", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM song_collections WHERE id = ?`, id); err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to remove membership", err)
		}
		return nil
	})
}

// GetSongsInCollection resolves a collection's memberships to songs,
// ascending by number. Memberships whose song is missing from the corpus are
// silently dropped (the join excludes them).
func (s *Store) GetSongsInCollection(ctx context.Context, collectionID int64) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.number, s.title, s.body
		FROM song_collections sc
		JOIN songs s ON s.number = sc.song_number
		WHERE sc.collection_id = ?
		ORDER BY s.number
	`, collectionID)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx,
			fmt.Sprintf("failed to list songs in collection %d", collectionID), err)
	}
	defer rows.Close()

	songs := []Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, sberrors.New(sberrors.ErrCodeStorageTx, "failed to scan song", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx, "failed to iterate songs", err)
	}
	return songs, nil
}

// GetCollectionsForSong returns the collections a song belongs to.
func (s *Store) GetCollectionsForSong(ctx context.Context, songNumber int) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.created_at, c.updated_at
		FROM song_collections sc
		JOIN collections c ON c.id = sc.collection_id
		WHERE sc.song_number = ?
		ORDER BY c.id
	`, songNumber)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx,
			fmt.Sprintf("failed to list collections for song %d", songNumber), err)
	}
	defer rows.Close()
	return scanCollections(rows)
}

// GetAvailableCollections returns all collections the song is not yet a
// member of: the set driving "add to collection" pickers.
func (s *Store) GetAvailableCollections(ctx context.Context, songNumber int) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.created_at, c.updated_at
		FROM collections c
		WHERE c.id NOT IN (
			SELECT collection_id FROM song_collections WHERE song_number = ?
		)
		ORDER BY c.id
	`, songNumber)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx,
			fmt.Sprintf("failed to list available collections for song %d", songNumber), err)
	}
	defer rows.Close()
	return scanCollections(rows)
}

// GetSongsCountInCollection returns the membership count for a collection.
// Soft-fails to zero.
func (s *Store) GetSongsCountInCollection(ctx context.Context, collectionID int64) int {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM song_collections WHERE collection_id = ?`,
		collectionID).Scan(&count)
	if err != nil {
		slog.Warn("get_songs_count_in_collection_failed",
			slog.Int64("collection_id", collectionID),
			slog.String("error", err.Error()))
		return 0
	}
	return count
}

func scanCollections(rows *sql.Rows) ([]Collection, error) {
	collections := []Collection{}
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, sberrors.New(sberrors.ErrCodeStorageTx, "failed to scan collection", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx, "failed to iterate collections", err)
	}
	return collections, nil
}

// isUniqueViolation reports whether err is the engine's unique-constraint
// failure on the membership pair index.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
