package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect smooths over the few places Postgres and SQLite disagree.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseDialect maps a STORE_BACKEND value to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3", "lite":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unknown store backend %q", name)
	}
}

// Rebind rewrites ? placeholders to $1, $2, ... for Postgres. Queries in
// this package never carry a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// lockClause is appended to row reads that must block concurrent writers.
// SQLite has no row locks; a single connection serializes writers instead.
func (d Dialect) lockClause() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// ConnectPostgres creates a connection pool to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database file. The pool is capped at
// one connection so transactions run one at a time.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	return db, nil
}

// Open connects to the backend named by dialect.
func Open(dialect Dialect, databaseURL, sqlitePath string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		return ConnectPostgres(databaseURL)
	case SQLite:
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported dialect %v", dialect)
	}
}
