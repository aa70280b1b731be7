// Package db opens the embedded SQLite database shared by the favorites
// store and the local identity provider.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// FileName is the database file inside the data directory.
const FileName = "pokedex.db"

// Open opens (creating if needed) the database at dir/pokedex.db.
// WAL mode keeps concurrent reads cheap; SQLite supports one writer, so
// the pool is pinned to a single connection.
func Open(dir string) (*sql.DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	// modernc.org/sqlite takes pragmas as _pragma=name(value) pairs;
	// the mattn-style _journal_mode form is silently ignored.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return conn, nil
}
