package game

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

// MatchRecord is one finished match as stored in the archive
type MatchRecord struct {
	SessionID       string    `json:"session_id"`
	WinnerID        string    `json:"winner_id"`
	WinnerName      string    `json:"winner_name"`
	WinnerInfluence float64   `json:"winner_influence"`
	Rounds          int       `json:"rounds"`
	EventCount      int       `json:"event_count"`
	Narrative       string    `json:"narrative"`
	FinishedAt      time.Time `json:"finished_at"`
}

// MatchArchive persists finished matches. Live game state is never stored;
// only final results land here.
type MatchArchive struct {
	db *sql.DB
}

// NewMatchArchive opens (and if needed bootstraps) the archive database
func NewMatchArchive(driver, dsn string) (*MatchArchive, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT UNIQUE,
		winner_id TEXT,
		winner_name TEXT,
		winner_influence REAL,
		rounds INTEGER,
		event_count INTEGER,
		narrative TEXT,
		finished_at TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &MatchArchive{db: db}, nil
}

// SaveMatch records one finished match. Saving the same session twice keeps
// the first record.
func (a *MatchArchive) SaveMatch(rec MatchRecord) error {
	_, err := a.db.Exec(
		`INSERT OR IGNORE INTO matches
		 (session_id, winner_id, winner_name, winner_influence, rounds, event_count, narrative, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.WinnerID, rec.WinnerName, rec.WinnerInfluence,
		rec.Rounds, rec.EventCount, rec.Narrative, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

// ListMatches returns the most recently finished matches, newest first
func (a *MatchArchive) ListMatches(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.Query(
		`SELECT session_id, winner_id, winner_name, winner_influence, rounds, event_count, narrative, finished_at
		 FROM matches ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		if err := rows.Scan(
			&rec.SessionID, &rec.WinnerID, &rec.WinnerName, &rec.WinnerInfluence,
			&rec.Rounds, &rec.EventCount, &rec.Narrative, &rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle
func (a *MatchArchive) Close() error {
	return a.db.Close()
}
