package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/bizpanel/internal/domain/inventory"
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// SQLSaleStore runs sale units of work on Postgres or SQLite.
type SQLSaleStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLSaleStore(db *sql.DB, dialect Dialect) *SQLSaleStore {
	return &SQLSaleStore{db: db, dialect: dialect}
}

// Begin starts a transaction bound to ctx. Context expiry aborts it.
func (s *SQLSaleStore) Begin(ctx context.Context) (sale.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlSaleTx{tx: tx, dialect: s.dialect}, nil
}

type sqlSaleTx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *sqlSaleTx) ReadStock(ctx context.Context, productID sale.ProductID) (int, error) {
	var stock int
	err := t.tx.QueryRowContext(ctx,
		t.dialect.Rebind("SELECT stock FROM products WHERE id = ?"+t.dialect.lockClause()),
		int64(productID),
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("product %d: %w", productID, inventory.ErrProductNotFound)
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// DecrementStock only subtracts when enough stock remains, so a racing
// writer can never drive stock below zero.
func (t *sqlSaleTx) DecrementStock(ctx context.Context, productID sale.ProductID, quantity int) error {
	res, err := t.tx.ExecContext(ctx,
		t.dialect.Rebind("UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?"),
		quantity, int64(productID), quantity,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var stock int
	err = t.tx.QueryRowContext(ctx,
		t.dialect.Rebind("SELECT stock FROM products WHERE id = ?"),
		int64(productID),
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %d: %w", productID, inventory.ErrProductNotFound)
	}
	if err != nil {
		return err
	}
	return &inventory.InsufficientStockError{ProductID: int64(productID), Available: stock}
}

func (t *sqlSaleTx) InsertSale(ctx context.Context, s *sale.Sale) (sale.SaleID, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		t.dialect.Rebind("INSERT INTO sales (client_id, employee_id, sold_at, total) VALUES (?, ?, ?, ?) RETURNING id"),
		int64(s.ClientID), int64(s.EmployeeID), s.SoldAt, s.Total.String(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return sale.SaleID(id), nil
}

func (t *sqlSaleTx) InsertSaleLine(ctx context.Context, line sale.SaleLine) error {
	_, err := t.tx.ExecContext(ctx,
		t.dialect.Rebind("INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, subtotal) VALUES (?, ?, ?, ?, ?)"),
		int64(line.SaleID), int64(line.ProductID), line.Quantity, line.UnitPrice.String(), line.Subtotal.String(),
	)
	return err
}

func (t *sqlSaleTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlSaleTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// GetSale loads a committed sale with its lines.
func (s *SQLSaleStore) GetSale(ctx context.Context, id sale.SaleID) (*sale.Sale, error) {
	out := &sale.Sale{ID: id}
	var (
		clientID, employeeID int64
		total                decimal.Decimal
	)
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT client_id, employee_id, sold_at, total FROM sales WHERE id = ?"),
		int64(id),
	).Scan(&clientID, &employeeID, &out.SoldAt, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sale.ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	out.ClientID = sale.ClientID(clientID)
	out.EmployeeID = sale.EmployeeID(employeeID)
	out.Total = total
	out.SoldAt = out.SoldAt.UTC()

	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind("SELECT product_id, quantity, unit_price, subtotal FROM sale_lines WHERE sale_id = ? ORDER BY id"),
		int64(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			line      = sale.SaleLine{SaleID: id}
		)
		if err := rows.Scan(&productID, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		line.ProductID = sale.ProductID(productID)
		out.Lines = append(out.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stock returns the committed stock of a product.
func (s *SQLSaleStore) Stock(ctx context.Context, productID sale.ProductID) (int, error) {
	var stock int
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT stock FROM products WHERE id = ?"),
		int64(productID),
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, inventory.ErrProductNotFound
	}
	return stock, err
}
