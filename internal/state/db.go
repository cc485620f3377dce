package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database holding shared-state commits and entries.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultDBPath returns the path to the boardroom state database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "boardroom", "state.db")
}

// Open opens the SQLite database at the given path, creating parent
// directories if needed. WAL mode is enabled for concurrent reads.
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
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
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

const migrationV1State = `
CREATE TABLE IF NOT EXISTS state_commits (
	version INTEGER PRIMARY KEY,
	actor TEXT NOT NULL,
	committed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS state_entries (
	key TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	limit_value REAL NOT NULL DEFAULT 0,
	used_value REAL NOT NULL DEFAULT 0,
	value REAL NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT '',
	hard INTEGER NOT NULL DEFAULT 0,
	metric TEXT NOT NULL DEFAULT '',
	direction TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL,
	actor TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
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
		{1, migrationV1State},
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

// SaveCommit persists one state commit and its entry writes in a single
// transaction.
func (db *DB) SaveCommit(version int64, actor string, at time.Time, entries []Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO state_commits (version, actor, committed_at) VALUES (?, ?, ?)",
		version, actor, at,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert commit: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.Exec(`
			INSERT INTO state_entries
				(key, kind, description, limit_value, used_value, value, unit, hard, metric, direction, version, actor, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				kind=excluded.kind, description=excluded.description,
				limit_value=excluded.limit_value, used_value=excluded.used_value,
				value=excluded.value, unit=excluded.unit, hard=excluded.hard,
				metric=excluded.metric, direction=excluded.direction,
				version=excluded.version, actor=excluded.actor, updated_at=excluded.updated_at`,
			e.Key, string(e.Kind), e.Description, e.Limit, e.Used, e.Value, e.Unit,
			boolToInt(e.Hard), e.Metric, e.Direction, e.Version, e.Actor, e.UpdatedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert entry %s: %w", e.Key, err)
		}
	}

	return tx.Commit()
}

// LoadEntries returns all persisted entries and the latest commit version.
func (db *DB) LoadEntries() ([]Entry, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var version int64
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM state_commits")
	if err := row.Scan(&version); err != nil {
		return nil, 0, fmt.Errorf("load commit version: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT key, kind, description, limit_value, used_value, value, unit, hard, metric, direction, version, actor, updated_at
		FROM state_entries ORDER BY key`)
	if err != nil {
		return nil, 0, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var hard int
		if err := rows.Scan(
			&e.Key, &kind, &e.Description, &e.Limit, &e.Used, &e.Value, &e.Unit,
			&hard, &e.Metric, &e.Direction, &e.Version, &e.Actor, &e.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = EntryKind(kind)
		e.Hard = hard != 0
		entries = append(entries, e)
	}
	return entries, version, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
