package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a connection.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DialectOf reports which dialect a database URL refers to.
// Anything that is not a postgres URL is treated as a SQLite path.
func DialectOf(url string) Dialect {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Open opens a database connection for url and verifies it.
func Open(url string) (*sql.DB, Dialect, error) {
	dialect := DialectOf(url)

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case Postgres:
		db, err = sql.Open("pgx", url)
	default:
		db, err = sql.Open("sqlite", sqliteDSN(url, !isMemory(url)))
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	if url == ":memory:" {
		// Each connection to :memory: gets its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("connecting to database: %w", err)
	}

	return db, dialect, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func sqliteDSN(path string, wal bool) string {
	pragmas := sqlitePragmas
	if wal {
		pragmas = append([]string{"journal_mode(WAL)"}, pragmas...)
	}

	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}
