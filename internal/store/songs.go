package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

// ReplaceAllSongs atomically clears the songs table and inserts the given
// songs: either every song is visible afterward or none of the change is.
// A nil slice is malformed input; an empty one leaves the store empty.
func (s *Store) ReplaceAllSongs(ctx context.Context, songs []Song) error {
	if songs == nil {
		return sberrors.New(sberrors.ErrCodeInvalidInput, "songs must not be nil", nil)
	}
	for i := range songs {
		if err := songs[i].validate(); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM songs`); err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to clear songs", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO songs (number, title, body) VALUES (?, ?, ?)`)
		if err != nil {
			return sberrors.New(sberrors.ErrCodeStorageTx, "failed to prepare insert", err)
		}
		defer stmt.Close()

		for i := range songs {
			song := normalizeSong(songs[i])
			body, err := json.Marshal(song.Body)
			if err != nil {
				return sberrors.New(sberrors.ErrCodeInvalidInput,
					fmt.Sprintf("failed to encode body of song %d", song.Number), err)
			}
			if _, err := stmt.ExecContext(ctx, song.Number, song.Title, string(body)); err != nil {
				return sberrors.New(sberrors.ErrCodeStorageTx,
					fmt.Sprintf("failed to insert song %d", song.Number), err)
			}
		}
		return nil
	})
}

// normalizeSong returns the canonical form of a song: non-nil body, blank
// segment content and repeatId collapsed to nil.
func normalizeSong(song Song) Song {
	if song.Body == nil {
		song.Body = []Segment{}
	}
	for i := range song.Body {
		song.Body[i].Content = normalizeText(song.Body[i].Content)
		song.Body[i].RepeatID = normalizeText(song.Body[i].RepeatID)
	}
	return song
}

// GetSong returns the song with the given number, or (nil, nil) if absent.
// Unlike the counting accessors, read failures here propagate.
func (s *Store) GetSong(ctx context.Context, number int) (*Song, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT number, title, body FROM songs WHERE number = ?`, number)

	song, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeStorageTx,
			fmt.Sprintf("failed to read song %d", number), err)
	}
	return song, nil
}

// GetAllSongs returns every song ordered by number. This is a soft-fail
// read: on storage error it logs and returns an empty slice.
func (s *Store) GetAllSongs(ctx context.Context) []Song {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, title, body FROM songs ORDER BY number`)
	if err != nil {
		slog.Warn("get_all_songs_failed", slog.String("error", err.Error()))
		return []Song{}
	}
	defer rows.Close()

	songs := []Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			slog.Warn("get_all_songs_scan_failed", slog.String("error", err.Error()))
			return []Song{}
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		slog.Warn("get_all_songs_failed", slog.String("error", err.Error()))
		return []Song{}
	}
	return songs
}

// GetSongNumbers returns all song numbers in ascending order.
// Soft-fails to an empty slice.
func (s *Store) GetSongNumbers(ctx context.Context) []int {
	rows, err := s.db.QueryContext(ctx, `SELECT number FROM songs ORDER BY number`)
	if err != nil {
		slog.Warn("get_song_numbers_failed", slog.String("error", err.Error()))
		return []int{}
	}
	defer rows.Close()

	numbers := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			slog.Warn("get_song_numbers_scan_failed", slog.String("error", err.Error()))
			return []int{}
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		slog.Warn("get_song_numbers_failed", slog.String("error", err.Error()))
		return []int{}
	}
	return numbers
}

// GetSongsCount returns the number of songs in the store.
// Soft-fails to zero; UI counters must never see an error.
func (s *Store) GetSongsCount(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&count); err != nil {
		slog.Warn("get_songs_count_failed", slog.String("error", err.Error()))
		return 0
	}
	return count
}

// rowScanner abstracts sql.Row and sql.Rows for scanSong.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*Song, error) {
	var song Song
	var body string
	if err := row.Scan(&song.Number, &song.Title, &body); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &song.Body); err != nil {
		return nil, err
	}
	if song.Body == nil {
		song.Body = []Segment{}
	}
	return &song, nil
}
