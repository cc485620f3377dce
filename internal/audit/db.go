package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB is an SQLite-backed audit sink.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultDBPath returns the path to the boardroom audit database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "boardroom", "audit.db")
}

// Open opens the audit database at the given path, creating parent
// directories if needed.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

const migrationV1Audit = `
CREATE TABLE IF NOT EXISTS audit_records (
	seq INTEGER PRIMARY KEY,
	type TEXT NOT NULL,
	goal_id TEXT NOT NULL DEFAULT '',
	subtask_id TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL DEFAULT '{}',
	citations TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	band TEXT NOT NULL DEFAULT '',
	at DATETIME NOT NULL,
	prev_hash TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_goal ON audit_records(goal_id, seq);
`

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Audit},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Save persists one audit record. Records are never updated or deleted.
func (db *DB) Save(r Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	details := "{}"
	if r.Details != nil {
		raw, err := json.Marshal(r.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		details = string(raw)
	}

	_, err := db.conn.Exec(`
		INSERT INTO audit_records
			(seq, type, goal_id, subtask_id, actor, summary, details, citations, confidence, band, at, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Seq, string(r.Type), r.GoalID, r.SubTaskID, r.Actor, r.Summary,
		details, strings.Join(r.Citations, "\n"), r.Confidence, string(r.Band),
		r.At, r.PrevHash, r.Hash,
	)
	if err != nil {
		return fmt.Errorf("insert audit record %d: %w", r.Seq, err)
	}
	return nil
}

// Load returns every persisted record in sequence order.
func (db *DB) Load() ([]Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(`
		SELECT seq, type, goal_id, subtask_id, actor, summary, details, citations, confidence, band, at, prev_hash, hash
		FROM audit_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var recType, band, details, citations string
		var at time.Time
		if err := rows.Scan(
			&r.Seq, &recType, &r.GoalID, &r.SubTaskID, &r.Actor, &r.Summary,
			&details, &citations, &r.Confidence, &band, &at, &r.PrevHash, &r.Hash,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Type = RecordType(recType)
		r.Band = ConfidenceBand(band)
		r.At = at
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details for record %d: %w", r.Seq, err)
			}
		}
		if citations != "" {
			r.Citations = strings.Split(citations, "\n")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
