// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler at build time and
// painful cross-compilation. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — it works everywhere Go works, and ":memory:" gives
// tests a throwaway database with zero infrastructure.
//
// sql.DB is a connection pool, not a single connection. Each request's query
// borrows a pooled connection and returns it when the rows are closed —
// that, plus SQLite's own transactional guarantees, is the entire
// concurrency story of this service.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" via its init function.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite database connection pool and runs migrations.
//
// dbPath examples:
//   - "data/tenderboard.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection now, so a bad path or permissions
	// problem surfaces at startup rather than on the first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// without it SQLite locks the whole file for every write, which stalls
	// the dashboard whenever the pipeline pushes a batch of tenders.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so restarting against an existing database file is safe.
func (db *DB) migrate() error {
	// google_id and email are both UNIQUE, but only email is NOT NULL:
	// local accounts have no Google identity until one is linked, and NULLs
	// never collide with each other under a UNIQUE index.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			google_id            TEXT UNIQUE,
			email                TEXT NOT NULL UNIQUE,
			password             TEXT,
			display_name         TEXT NOT NULL DEFAULT '',
			avatar_url           TEXT NOT NULL DEFAULT '',
			verification_token   TEXT,
			verification_sent_at DATETIME,
			is_verified          INTEGER NOT NULL DEFAULT 0,
			created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tenders (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			code        TEXT NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			deadline    DATETIME,
			ai_summary  TEXT NOT NULL DEFAULT '',
			ai_score    INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'new',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tenders_ai_score ON tenders(ai_score DESC, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating tenders table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate
// value under a UNIQUE constraint. The driver doesn't export a typed error
// for this, so we match the stable message prefix SQLite has used for years.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullable converts ""→NULL for optional text columns. The UNIQUE index on
// google_id relies on this — two empty strings would collide, two NULLs don't.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
