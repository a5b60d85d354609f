package mocks

import (
	"context"
	"sync"

	"github.com/example/bizpanel/internal/domain/sale"
)

// Operation names accepted by MockSaleStore.FailOn.
const (
	OpBegin          = "begin"
	OpReadStock      = "read_stock"
	OpDecrementStock = "decrement_stock"
	OpInsertSale     = "insert_sale"
	OpInsertSaleLine = "insert_sale_line"
	OpCommit         = "commit"
)

// MockSaleStore wraps a real sale.Store and injects failures into chosen
// operations. It also counts how each unit of work ended.
type MockSaleStore struct {
	inner sale.Store

	mu        sync.Mutex
	failures  map[string]failure
	calls     map[string]int
	Begins    int
	Commits   int
	Rollbacks int
}

type failure struct {
	err   error
	after int // number of successful calls allowed before failing
}

func NewMockSaleStore(inner sale.Store) *MockSaleStore {
	return &MockSaleStore{
		inner:    inner,
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}
}

// FailOn makes op return err from now on.
func (m *MockSaleStore) FailOn(op string, err error) {
	m.FailAfter(op, 0, err)
}

// FailAfter lets op succeed n times, then return err.
func (m *MockSaleStore) FailAfter(op string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = failure{err: err, after: n}
	m.calls[op] = 0
}

// Calls returns how many times op was invoked.
func (m *MockSaleStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockSaleStore) check(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	f, ok := m.failures[op]
	if !ok || m.calls[op] <= f.after {
		return nil
	}
	return f.err
}

func (m *MockSaleStore) Begin(ctx context.Context) (sale.Tx, error) {
	if err := m.check(OpBegin); err != nil {
		return nil, err
	}
	tx, err := m.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.Begins++
	m.mu.Unlock()
	return &mockTx{inner: tx, store: m}, nil
}

type mockTx struct {
	inner sale.Tx
	store *MockSaleStore
}

func (t *mockTx) ReadStock(ctx context.Context, productID sale.ProductID) (int, error) {
	if err := t.store.check(OpReadStock); err != nil {
		return 0, err
	}
	return t.inner.ReadStock(ctx, productID)
}

func (t *mockTx) DecrementStock(ctx context.Context, productID sale.ProductID, quantity int) error {
	if err := t.store.check(OpDecrementStock); err != nil {
		return err
	}
	return t.inner.DecrementStock(ctx, productID, quantity)
}

func (t *mockTx) InsertSale(ctx context.Context, s *sale.Sale) (sale.SaleID, error) {
	if err := t.store.check(OpInsertSale); err != nil {
		return 0, err
	}
	return t.inner.InsertSale(ctx, s)
}

func (t *mockTx) InsertSaleLine(ctx context.Context, line sale.SaleLine) error {
	if err := t.store.check(OpInsertSaleLine); err != nil {
		return err
	}
	return t.inner.InsertSaleLine(ctx, line)
}

func (t *mockTx) Commit() error {
	if err := t.store.check(OpCommit); err != nil {
		return err
	}
	if err := t.inner.Commit(); err != nil {
		return err
	}
	t.store.mu.Lock()
	t.store.Commits++
	t.store.mu.Unlock()
	return nil
}

func (t *mockTx) Rollback() error {
	t.store.mu.Lock()
	t.store.Rollbacks++
	t.store.mu.Unlock()
	return t.inner.Rollback()
}
