package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/bizpanel/internal/domain/sale"
)

// Contact is what the notifier needs to send a receipt.
type Contact struct {
	Name  string
	Email string
}

// Directory answers lookups about clients and employees.
type Directory struct {
	db      *sql.DB
	dialect Dialect
}

func NewDirectory(db *sql.DB, dialect Dialect) *Directory {
	return &Directory{db: db, dialect: dialect}
}

// ResolveEmployeeForUser returns the employee linked to a login account.
func (d *Directory) ResolveEmployeeForUser(ctx context.Context, userID sale.UserID) (sale.EmployeeID, error) {
	var id int64
	err := d.db.QueryRowContext(ctx,
		d.dialect.Rebind("SELECT id FROM employees WHERE user_id = ?"),
		int64(userID),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sale.ErrUnknownEmployee
	}
	if err != nil {
		return 0, err
	}
	return sale.EmployeeID(id), nil
}

func (d *Directory) ClientExists(ctx context.Context, clientID sale.ClientID) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		d.dialect.Rebind("SELECT COUNT(*) FROM clients WHERE id = ?"),
		int64(clientID),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Directory) ClientContact(ctx context.Context, clientID sale.ClientID) (Contact, error) {
	var first, last, email string
	err := d.db.QueryRowContext(ctx,
		d.dialect.Rebind("SELECT first_name, last_name, email FROM clients WHERE id = ?"),
		int64(clientID),
	).Scan(&first, &last, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, sale.ErrUnknownClient
	}
	if err != nil {
		return Contact{}, err
	}
	return Contact{Name: strings.TrimSpace(first + " " + last), Email: email}, nil
}

// ProductName returns the catalogue name of a product.
func (d *Directory) ProductName(ctx context.Context, productID sale.ProductID) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx,
		d.dialect.Rebind("SELECT name FROM products WHERE id = ?"),
		int64(productID),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sale.ErrUnknownProduct
	}
	return name, err
}
