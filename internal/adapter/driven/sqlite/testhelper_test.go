package sqlite

import (
	"context"
	"net/url"
	"testing"
)

// testKey is a fixed AES-256 key for repository tests.
var testKey = []byte("0123456789abcdef0123456789abcdef")

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as query parameters.
	// WAL does not apply to in-memory databases, so journal_mode is omitted.
	name := url.PathEscape(t.Name())
	db, err := openDB(context.Background(), dsn(name, []string{"busy_timeout(5000)", "foreign_keys(ON)"}, "mode=memory", "cache=shared"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if _, err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
