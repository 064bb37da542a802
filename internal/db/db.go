// Package db opens the SQLite handles used by the server: the database
// exposed to MCP clients and the optional telemetry database.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Driver is the database/sql driver name registered by modernc.org/sqlite.
const Driver = "sqlite"

// MemoryPath selects a private, non-persisted database.
const MemoryPath = ":memory:"

// DB is the database served to clients.
type DB struct {
	*sql.DB
	Path string
}

// Open opens (creating if needed) the database at path. The pool is capped at
// a single connection: an in-memory database lives only as long as its
// connection, and statements are serialized on it.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}

	dsn := MemoryPath
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}

	sqlDB, err := sql.Open(Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{DB: sqlDB, Path: path}, nil
}

// IsMemory reports whether the database is ephemeral.
func (db *DB) IsMemory() bool {
	return db.Path == MemoryPath
}
