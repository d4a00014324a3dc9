// Package history persists per-endpoint connection outcomes so the UI layer
// can offer recent servers and their reliability. It implements the
// AttemptRecorder collaborator the download engines report into.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	endpoint       TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	last_used      INTEGER NOT NULL,
	success_count  INTEGER NOT NULL DEFAULT 0,
	total_attempts INTEGER NOT NULL DEFAULT 0
);`

type Store struct {
	db *sql.DB
}

// Entry is one remembered endpoint.
type Entry struct {
	Endpoint      string
	Name          string
	LastUsed      time.Time
	SuccessCount  int
	TotalAttempts int
}

// SuccessRate returns the percentage of attempts that succeeded.
func (e Entry) SuccessRate() float64 {
	if e.TotalAttempts == 0 {
		return 0
	}
	return float64(e.SuccessCount) / float64(e.TotalAttempts) * 100
}

func Open(dbPath string) (*Store, error) {
	dbDir := filepath.Dir(dbPath)

	// Ensure the database directory exists
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Ping makes sure the file is actually accessible and the DSN is valid
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("could not create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordAttempt upserts the endpoint's counters. Errors are swallowed:
// history is advisory and must never fail a transfer.
func (s *Store) RecordAttempt(endpoint string, ok bool) {
	success := 0
	if ok {
		success = 1
	}

	query := `INSERT INTO connections (endpoint, last_used, success_count, total_attempts)
              VALUES (?, ?, ?, 1)
              ON CONFLICT(endpoint) DO UPDATE SET
                  last_used      = excluded.last_used,
                  success_count  = connections.success_count + excluded.success_count,
                  total_attempts = connections.total_attempts + 1`

	_, _ = s.db.Exec(query, endpoint, time.Now().Unix(), success)
}

// SetName attaches a friendly label to an endpoint.
func (s *Store) SetName(endpoint, name string) error {
	_, err := s.db.Exec(`UPDATE connections SET name = ? WHERE endpoint = ?`, name, endpoint)
	return err
}

// Recent returns endpoints ordered by last use, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`SELECT endpoint, name, last_used, success_count, total_attempts
	                         FROM connections ORDER BY last_used DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var lastUsed int64
		if err := rows.Scan(&e.Endpoint, &e.Name, &lastUsed, &e.SuccessCount, &e.TotalAttempts); err != nil {
			return nil, err
		}
		e.LastUsed = time.Unix(lastUsed, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
