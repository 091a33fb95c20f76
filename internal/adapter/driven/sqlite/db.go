package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// filePragmas apply to the on-disk store. In-memory test databases skip
// journal_mode since WAL does not apply to them.
var filePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

// DB is the local store: encrypted connection credentials and the checkout
// ledger. Writes go through a single connection so concurrent commands
// queue on busy_timeout instead of failing with "database is locked".
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
}

// NewDB opens the store at dbPath, creating its directory when missing.
// Both the directory and the database file are owner-only.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := openDB(ctx, dsn(dbPath, filePragmas))
	if err != nil {
		return nil, err
	}

	if err := os.Chmod(dbPath, 0o600); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("restrict database file %s: %w", dbPath, err)
	}
	return db, nil
}

// dsn renders a modernc SQLite URI with one _pragma parameter per entry.
func dsn(name string, pragmas []string, params ...string) string {
	query := make([]string, 0, len(params)+len(pragmas))
	query = append(query, params...)
	for _, p := range pragmas {
		query = append(query, "_pragma="+p)
	}
	return "file:" + name + "?" + strings.Join(query, "&")
}

func openDB(ctx context.Context, dsn string) (*DB, error) {
	writer, err := openPool(ctx, dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader, err := openPool(ctx, dsn, 2)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader}, nil
}

func openPool(ctx context.Context, dsn string, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpen)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}

// Close closes both pools and returns the first error.
func (db *DB) Close() error {
	var firstErr error
	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}
	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}
	return firstErr
}
