// Package db opens the SQLite database that backs the workflow store.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type LocalDB struct {
	DB    *sql.DB
	Close func()
}

// CreateTables executes schema.sql. It is idempotent.
func CreateTables(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Open opens path and creates the tables. An in-memory database is
// limited to one connection so every query sees the same data.
func Open(ctx context.Context, path string) (LocalDB, error) {
	var result LocalDB
	if path == "" {
		path = MemoryPath
	}

	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return result, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return result, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := CreateTables(ctx, db); err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create tables: %w", err)
	}

	result = LocalDB{
		DB:    db,
		Close: func() { _ = db.Close() },
	}
	return result, nil
}
