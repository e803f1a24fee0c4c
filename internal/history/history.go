// Package history records the outcome of every attempted fetch in a local
// SQLite database. Only metadata is kept; transcript text is never written.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ytscript/internal/media"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// Store is an open history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS fetches (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id   TEXT NOT NULL DEFAULT '',
		reference  TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		chars      INTEGER NOT NULL DEFAULT 0,
		status     TEXT NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		fetched_at TEXT NOT NULL
	)`)
	return err
}

// Record appends e. A zero FetchedAt is set to the current time.
func (s *Store) Record(ctx context.Context, e media.HistoryEntry) (int64, error) {
	if e.Status != media.StatusOK && e.Status != media.StatusFailed {
		return 0, fmt.Errorf("recording history: invalid status %q", e.Status)
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fetches (video_id, reference, title, chars, status, reason, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.VideoID), e.Reference, e.Title, e.Chars, string(e.Status), e.Reason,
		e.FetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recording history: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_id, reference, title, chars, status, reason, fetched_at
		 FROM fetches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var (
			e       media.HistoryEntry
			videoID string
			status  string
			at      string
		)
		if err := rows.Scan(&e.ID, &videoID, &e.Reference, &e.Title, &e.Chars, &status, &e.Reason, &at); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.VideoID = media.VideoID(videoID)
		e.Status = media.FetchStatus(status)
		if e.FetchedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("reading history: bad timestamp %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fetches`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FormatForDisplay renders entries as one line each for terminal output.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		at := e.FetchedAt.Local().Format("2006-01-02 15:04")
		switch e.Status {
		case media.StatusOK:
			lines = append(lines, fmt.Sprintf("%s  ok      %s  %s (%d chars)", at, e.VideoID, e.Title, e.Chars))
		default:
			lines = append(lines, fmt.Sprintf("%s  failed  %s  %s", at, e.Reference, e.Reason))
		}
	}
	return lines
}
