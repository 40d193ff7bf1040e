package store

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"iter"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - kv table is WITHOUT ROWID
const currentSchemaVersion = 1

var defaultPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// SQLite is a DataStore and MutableStore over a single SQLite table.
// Keys are BLOBs, which SQLite compares with memcmp, so ORDER BY key is byte
// order.
//
// The pool holds one connection. A Range must be drained or abandoned before
// the next call on the same store.
type SQLite struct {
	kvTable
	db *sql.DB
}

// dbtx is the part of *sql.DB and *sql.Tx the kv table needs.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// kvTable runs the kv statements against a connection or a transaction.
type kvTable struct {
	q dbtx
}

// SQLiteOption configures Open.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	pragmas []string
}

// WithSQLitePragmas appends pragmas run after the defaults.
func WithSQLitePragmas(pragmas ...string) SQLiteOption {
	return func(c *sqliteConfig) {
		c.pragmas = append(c.pragmas, pragmas...)
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies pragmas and migrations. Safe to call repeatedly on the same path.
func Open(path string, opts ...SQLiteOption) (*SQLite, error) {
	cfg := &sqliteConfig{pragmas: append([]string(nil), defaultPragmas...)}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, cfg.pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{kvTable: kvTable{q: db}, db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored at key.
func (t kvTable) Get(ctx context.Context, key []byte) ([]byte, error) {
	var v []byte
	err := t.q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return v, nil
}

// Range yields entries with lo <= key <= hi in key order.
func (t kvTable) Range(ctx context.Context, lo, hi []byte) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if bytes.Compare(lo, hi) > 0 {
			return
		}
		if lo == nil {
			lo = []byte{} // nil binds as NULL
		}
		rows, err := t.q.QueryContext(ctx, `
			SELECT key, value
			FROM kv
			WHERE key >= ? AND key <= ?
			ORDER BY key ASC
		`, lo, hi)
		if err != nil {
			yield(Entry{}, fmt.Errorf("query range: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e Entry
			if err := rows.Scan(&e.Key, &e.Value); err != nil {
				yield(Entry{}, fmt.Errorf("scan entry: %w", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Entry{}, fmt.Errorf("iterate range: %w", err))
		}
	}
}

// Put inserts or replaces the value at key.
func (t kvTable) Put(ctx context.Context, key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t kvTable) Delete(ctx context.Context, key []byte) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func applyPragmas(db *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 rebuilds a rowid kv table from before v1. New databases get the
// WITHOUT ROWID table from schema.sql and this is a no-op for them.
func migrateToV1(db *sql.DB) error {
	var ddl string
	err := db.QueryRow(`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&ddl)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if bytes.Contains(bytes.ToUpper([]byte(ddl)), []byte("WITHOUT ROWID")) {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`ALTER TABLE kv RENAME TO kv_v0`,
		`CREATE TABLE kv (key BLOB PRIMARY KEY NOT NULL, value BLOB NOT NULL) WITHOUT ROWID`,
		`INSERT INTO kv (key, value) SELECT key, value FROM kv_v0`,
		`DROP TABLE kv_v0`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	return tx.Commit()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
