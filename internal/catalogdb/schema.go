// Package catalogdb keeps a SQLite snapshot of the last index pass so that
// documents can be looked up by content hash or alternate id without
// rescanning the catalog.
package catalogdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	hash    TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	path    TEXT NOT NULL,
	pubdate TEXT NOT NULL DEFAULT '',
	tags    TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS doc_tags (
	tag  TEXT NOT NULL,
	hash TEXT NOT NULL,
	UNIQUE(tag, hash)
);

CREATE TABLE IF NOT EXISTS doc_ids (
	id   TEXT PRIMARY KEY,
	hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_doc_tags_tag ON doc_tags(tag);
`

// DB wraps a sql.DB with snapshot operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the snapshot database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalogdb: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalogdb: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalogdb: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
