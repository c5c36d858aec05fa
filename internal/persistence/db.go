// Package persistence provides SQLite-based storage for dynasty simulation
// state, scheduled events, and standings. See DESIGN.md.
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for league state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. Write
// transactions take an immediate lock so a second writer fails fast
// instead of deadlocking mid-commit.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dynasty_state (
		dynasty_id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		phase TEXT NOT NULL,
		season_year INTEGER NOT NULL,
		week INTEGER NOT NULL,
		playoff_round INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		dynasty_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		payload TEXT,
		result TEXT,
		executed INTEGER NOT NULL DEFAULT 0,
		UNIQUE(dynasty_id, id)
	);

	CREATE TABLE IF NOT EXISTS standings (
		dynasty_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		ties INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (dynasty_id, team_id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_dynasty_date ON events(dynasty_id, date);
	CREATE INDEX IF NOT EXISTS idx_events_dynasty_kind ON events(dynasty_id, kind);
	`
	_, err := db.conn.Exec(schema)
	return err
}
