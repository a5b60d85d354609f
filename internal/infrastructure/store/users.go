package store

import (
	"context"
	"database/sql"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// User is a login account with the permissions granted by its role.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	Permissions  []string
}

// UserStore reads login accounts.
type UserStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserStore(db *sql.DB, dialect Dialect) *UserStore {
	return &UserStore{db: db, dialect: dialect}
}

// FindByUsername returns ErrUserNotFound when no account matches.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var (
		u      = &User{}
		roleID int64
	)
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT u.id, u.username, u.password_hash, r.id, r.name
			FROM users u JOIN roles r ON r.id = u.role_id
			WHERE u.username = ?`),
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &roleID, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind("SELECT permission FROM role_permissions WHERE role_id = ? ORDER BY permission"),
		roleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		u.Permissions = append(u.Permissions, p)
	}
	return u, rows.Err()
}
