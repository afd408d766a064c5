// Package score persists finished-run scores to a local SQLite database so
// the SSH server can keep an all-time leaderboard across restarts.
package score

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one row of the all-time leaderboard.
type Entry struct {
	Username string
	Score    int
}

// Store provides SQLite-backed persistence for run scores.
type Store struct {
	sqlDB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS scores (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    username    TEXT    NOT NULL,
    score       INTEGER NOT NULL,
    preset      TEXT    NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_username_score ON scores(username, score DESC);
`

// Open opens (creating if needed) a score store at the given file path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// SQLite allows a single writer; serializing through one connection
	// avoids busy errors from the database/sql pool.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record stores one finished run. The preset names the environment the run
// was played under and may be empty.
func (s *Store) Record(ctx context.Context, username string, points int, preset string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if points < 0 {
		return fmt.Errorf("score must not be negative")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO scores (username, score, preset, recorded_at) VALUES (?, ?, ?, ?)`,
		username,
		points,
		strings.TrimSpace(preset),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// Top returns the best score per pilot, highest first. Ties resolve
// alphabetically so the order is stable.
func (s *Store) Top(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT username, MAX(score) AS best
		 FROM scores
		 GROUP BY username
		 ORDER BY best DESC, username ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, fmt.Errorf("scan top score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top scores: %w", err)
	}
	return entries, nil
}
