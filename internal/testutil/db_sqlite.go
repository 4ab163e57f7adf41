package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SetupSQLite creates a private in-memory SQLite database with foreign keys
// enabled. The pool is pinned to one connection so every query sees the same
// in-memory database. The connection is closed when the test completes.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite connection: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping sqlite: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// ExecSQL executes each statement and fails the test on error.
func ExecSQL(t *testing.T, db *sql.DB, statements ...string) {
	t.Helper()

	for _, q := range statements {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("failed to execute SQL:\n%s\nerror: %v", q, err)
		}
	}
}
