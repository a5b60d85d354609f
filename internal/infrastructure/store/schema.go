package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Column types that differ per dialect. Money is kept exact: arbitrary
// precision NUMERIC on Postgres, decimal text on SQLite.
type columnTypes struct {
	serial    string
	money     string
	timestamp string
}

func (d Dialect) columns() columnTypes {
	if d == Postgres {
		return columnTypes{serial: "SERIAL PRIMARY KEY", money: "NUMERIC", timestamp: "TIMESTAMPTZ"}
	}
	return columnTypes{serial: "INTEGER PRIMARY KEY AUTOINCREMENT", money: "TEXT", timestamp: "DATETIME"}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id {{serial}},
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		role_id INTEGER NOT NULL REFERENCES roles(id),
		permission TEXT NOT NULL,
		PRIMARY KEY (role_id, permission)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{serial}},
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role_id INTEGER NOT NULL REFERENCES roles(id)
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id {{serial}},
		user_id INTEGER UNIQUE REFERENCES users(id),
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id {{serial}},
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id {{serial}},
		name TEXT NOT NULL,
		price {{money}} NOT NULL,
		stock INTEGER NOT NULL CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id {{serial}},
		client_id INTEGER NOT NULL REFERENCES clients(id),
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		sold_at {{timestamp}} NOT NULL,
		total {{money}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale_lines (
		id {{serial}},
		sale_id INTEGER NOT NULL REFERENCES sales(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price {{money}} NOT NULL,
		subtotal {{money}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_sale_id ON sale_lines (sale_id)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
		id {{serial}},
		user_id INTEGER REFERENCES users(id),
		action TEXT NOT NULL,
		detail TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT 'normal',
		created_at {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log (created_at)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	cols := dialect.columns()
	r := strings.NewReplacer(
		"{{serial}}", cols.serial,
		"{{money}}", cols.money,
		"{{timestamp}}", cols.timestamp,
	)
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
