package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/example/bizpanel/internal/domain/inventory"
	"github.com/example/bizpanel/internal/domain/sale"
)

var errTxClosed = errors.New("transaction already closed")

type memProduct struct {
	lock  chan struct{} // held by the unit of work that read the row
	stock int
}

// MemorySaleStore is an in-process sale.Store. Each product carries its own
// lock, taken on ReadStock and released on Commit or Rollback, which mirrors
// SELECT ... FOR UPDATE.
type MemorySaleStore struct {
	mu       sync.Mutex
	products map[sale.ProductID]*memProduct
	sales    map[sale.SaleID]sale.Sale
	nextID   sale.SaleID
}

func NewMemorySaleStore() *MemorySaleStore {
	return &MemorySaleStore{
		products: make(map[sale.ProductID]*memProduct),
		sales:    make(map[sale.SaleID]sale.Sale),
	}
}

// SetStock creates the product if needed and overwrites its stock.
func (s *MemorySaleStore) SetStock(productID sale.ProductID, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.products[productID]; ok {
		p.stock = stock
		return
	}
	s.products[productID] = &memProduct{lock: make(chan struct{}, 1), stock: stock}
}

// Stock returns the committed stock of a product.
func (s *MemorySaleStore) Stock(_ context.Context, productID sale.ProductID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return 0, inventory.ErrProductNotFound
	}
	return p.stock, nil
}

func (s *MemorySaleStore) GetSale(_ context.Context, id sale.SaleID) (*sale.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.sales[id]
	if !ok {
		return nil, sale.ErrSaleNotFound
	}
	found.Lines = slices.Clone(found.Lines)
	return &found, nil
}

// SaleCount returns the number of committed sales.
func (s *MemorySaleStore) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *MemorySaleStore) Begin(ctx context.Context) (sale.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memSaleTx{
		store:   s,
		locked:  make(map[sale.ProductID]*memProduct),
		pending: make(map[sale.ProductID]int),
	}, nil
}

type memSaleTx struct {
	store   *MemorySaleStore
	locked  map[sale.ProductID]*memProduct
	pending map[sale.ProductID]int
	sale    *sale.Sale
	done    bool
}

func (t *memSaleTx) lock(ctx context.Context, productID sale.ProductID) (*memProduct, error) {
	if p, ok := t.locked[productID]; ok {
		return p, nil
	}

	t.store.mu.Lock()
	p, ok := t.store.products[productID]
	t.store.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("product %d: %w", productID, inventory.ErrProductNotFound)
	}

	select {
	case p.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	t.store.mu.Lock()
	t.pending[productID] = p.stock
	t.store.mu.Unlock()
	t.locked[productID] = p
	return p, nil
}

func (t *memSaleTx) ReadStock(ctx context.Context, productID sale.ProductID) (int, error) {
	if t.done {
		return 0, errTxClosed
	}
	if _, err := t.lock(ctx, productID); err != nil {
		return 0, err
	}
	return t.pending[productID], nil
}

func (t *memSaleTx) DecrementStock(ctx context.Context, productID sale.ProductID, quantity int) error {
	if t.done {
		return errTxClosed
	}
	if _, err := t.lock(ctx, productID); err != nil {
		return err
	}
	if t.pending[productID] < quantity {
		return &inventory.InsufficientStockError{ProductID: int64(productID), Available: t.pending[productID]}
	}
	t.pending[productID] -= quantity
	return nil
}

func (t *memSaleTx) InsertSale(ctx context.Context, s *sale.Sale) (sale.SaleID, error) {
	if t.done {
		return 0, errTxClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.store.mu.Lock()
	t.store.nextID++
	id := t.store.nextID
	t.store.mu.Unlock()

	header := *s
	header.ID = id
	header.Lines = nil
	t.sale = &header
	return id, nil
}

func (t *memSaleTx) InsertSaleLine(ctx context.Context, line sale.SaleLine) error {
	if t.done {
		return errTxClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.sale == nil || t.sale.ID != line.SaleID {
		return fmt.Errorf("sale %d not inserted in this transaction", line.SaleID)
	}
	t.sale.Lines = append(t.sale.Lines, line)
	return nil
}

func (t *memSaleTx) Commit() error {
	if t.done {
		return errTxClosed
	}
	t.store.mu.Lock()
	for id, stock := range t.pending {
		t.store.products[id].stock = stock
	}
	if t.sale != nil {
		t.store.sales[t.sale.ID] = *t.sale
	}
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *memSaleTx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *memSaleTx) release() {
	t.done = true
	for _, p := range t.locked {
		<-p.lock
	}
	t.locked = nil
}
