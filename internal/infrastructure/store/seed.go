package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Permissions known to the panel.
const (
	PermCreateSales  = "create_sales"
	PermViewSales    = "view_sales"
	PermViewActivity = "view_activity"
)

// AllPermissions is granted to the bootstrap administrator role.
var AllPermissions = []string{PermCreateSales, PermViewSales, PermViewActivity}

// Seeder inserts reference rows. It backs Bootstrap and the integration
// tests.
type Seeder struct {
	db      *sql.DB
	dialect Dialect
}

func NewSeeder(db *sql.DB, dialect Dialect) *Seeder {
	return &Seeder{db: db, dialect: dialect}
}

func (s *Seeder) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

func (s *Seeder) Role(ctx context.Context, name string, permissions ...string) (int64, error) {
	id, err := s.insert(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("insert role %s: %w", name, err)
	}
	for _, p := range permissions {
		if _, err := s.db.ExecContext(ctx,
			s.dialect.Rebind("INSERT INTO role_permissions (role_id, permission) VALUES (?, ?)"),
			id, p,
		); err != nil {
			return 0, fmt.Errorf("grant %s: %w", p, err)
		}
	}
	return id, nil
}

func (s *Seeder) User(ctx context.Context, username, passwordHash string, roleID int64) (int64, error) {
	return s.insert(ctx, "INSERT INTO users (username, password_hash, role_id) VALUES (?, ?, ?)",
		username, passwordHash, roleID)
}

// Employee links a new employee to userID. A zero userID leaves it unlinked.
func (s *Seeder) Employee(ctx context.Context, firstName, lastName string, userID int64) (int64, error) {
	return s.insert(ctx, "INSERT INTO employees (user_id, first_name, last_name) VALUES (?, ?, ?)",
		sql.NullInt64{Int64: userID, Valid: userID > 0}, firstName, lastName)
}

func (s *Seeder) Client(ctx context.Context, firstName, lastName, email string) (int64, error) {
	return s.insert(ctx, "INSERT INTO clients (first_name, last_name, email) VALUES (?, ?, ?)",
		firstName, lastName, email)
}

func (s *Seeder) Product(ctx context.Context, name string, price decimal.Decimal, stock int) (int64, error) {
	return s.insert(ctx, "INSERT INTO products (name, price, stock) VALUES (?, ?, ?)",
		name, price.String(), stock)
}

// Bootstrap creates an administrator account with every permission and a
// linked employee, unless the username already exists.
func Bootstrap(ctx context.Context, db *sql.DB, dialect Dialect, username, passwordHash string) error {
	_, err := NewUserStore(db, dialect).FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	seed := NewSeeder(db, dialect)
	roleID, err := seed.Role(ctx, "admin", AllPermissions...)
	if err != nil {
		return err
	}
	userID, err := seed.User(ctx, username, passwordHash, roleID)
	if err != nil {
		return err
	}
	_, err = seed.Employee(ctx, username, "", userID)
	return err
}
