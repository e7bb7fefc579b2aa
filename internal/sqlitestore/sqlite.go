// Package sqlitestore is the production implementation of
// internal/agent/store's TaskStore, MessageStore, and SummaryStore
// interfaces, backed by a single-connection, WAL-mode SQLite database.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO

	"github.com/alexsharp-ai/bytebot/internal/logging"
	"github.com/alexsharp-ai/bytebot/internal/sqlitestore/migrations"
)

// DB wraps a single-connection SQLite handle shared by the three store views.
type DB struct {
	conn *sql.DB
}

// Open creates (if needed) the database at path, returning a handle with DB
// access serialized through a single connection — SQLite's writer does not
// benefit from a connection pool. It does not apply migrations; call Migrate.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}

	logging.Infof("[sqlitestore] opened %s", path)
	return &DB{conn: conn}, nil
}

// Migrate applies every pending goose migration.
func (d *DB) Migrate() error {
	return migrations.Run(d.conn)
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Raw exposes the underlying *sql.DB for collaborators that need direct
// access (e.g. the scheduler's due-task query).
func (d *DB) Raw() *sql.DB { return d.conn }

// Tasks returns the TaskStore view over this DB.
func (d *DB) Tasks() *TaskStore { return &TaskStore{db: d.conn} }

// Messages returns the MessageStore view over this DB.
func (d *DB) Messages() *MessageStore { return &MessageStore{db: d.conn} }

// Summaries returns the SummaryStore view over this DB.
func (d *DB) Summaries() *SummaryStore { return &SummaryStore{db: d.conn} }
