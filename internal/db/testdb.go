package db

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
)

var testDBSeq atomic.Int64

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
// Connections in the pool share the same database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := fmt.Sprintf("file:plateshare_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, _, err := Open(url)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db, SQLite); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
