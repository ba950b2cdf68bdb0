// Package db persists evaluation verdicts to a local SQLite database
// so operators can inspect the recent health history of a card.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hsmtools/hsmcheck/internal/probe"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	checked_at  TEXT    NOT NULL,
	slot        INTEGER NOT NULL,
	severity    TEXT    NOT NULL,
	exit_code   INTEGER NOT NULL,
	message     TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdicts_checked_at ON verdicts(checked_at);
`

// Store records one row per evaluation run.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating the file, its
// parent directory, and the schema as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	// WAL mode and a busy timeout; SQLite works best with a single
	// connection for writes.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	d, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	d.SetMaxOpenConns(1)

	if err := d.PingContext(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := d.ExecContext(ctx, schema); err != nil {
		d.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: d}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the verdict of one evaluation run.
func (s *Store) Record(ctx context.Context, slot int, v probe.Verdict, duration time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verdicts (checked_at, slot, severity, exit_code, message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		slot,
		v.Severity.String(),
		v.Severity.ExitCode(),
		v.Message,
		duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

// Entry is one stored verdict row.
type Entry struct {
	CheckedAt  time.Time
	Slot       int
	Severity   string
	ExitCode   int
	Message    string
	DurationMs int
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT checked_at, slot, severity, exit_code, message, duration_ms
		FROM verdicts
		ORDER BY checked_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var checkedAt string
		if err := rows.Scan(&checkedAt, &e.Slot, &e.Severity, &e.ExitCode, &e.Message, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}
		e.CheckedAt, err = time.Parse(time.RFC3339, checkedAt)
		if err != nil {
			return nil, fmt.Errorf("parse checked_at %q: %w", checkedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
