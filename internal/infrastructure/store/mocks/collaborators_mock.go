package mocks

import (
	"context"
	"sync"

	"github.com/example/bizpanel/internal/audit"
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/example/bizpanel/internal/infrastructure/store"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu           sync.Mutex
	PublishCalls []PublishCall
	PublishErr   error
}

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event any
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(_ context.Context, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = append(m.PublishCalls, PublishCall{Key: key, Event: event})
	return m.PublishErr
}

// MockDirectory resolves employees and clients from maps.
type MockDirectory struct {
	Employees map[sale.UserID]sale.EmployeeID
	Clients   map[sale.ClientID]store.Contact
	Products  map[sale.ProductID]string
	Err       error

	mu            sync.Mutex
	ResolveCalls  []sale.UserID
	ClientChecked []sale.ClientID
}

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{
		Employees: make(map[sale.UserID]sale.EmployeeID),
		Clients:   make(map[sale.ClientID]store.Contact),
		Products:  make(map[sale.ProductID]string),
	}
}

func (m *MockDirectory) ResolveEmployeeForUser(_ context.Context, userID sale.UserID) (sale.EmployeeID, error) {
	m.mu.Lock()
	m.ResolveCalls = append(m.ResolveCalls, userID)
	m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id, ok := m.Employees[userID]
	if !ok {
		return 0, sale.ErrUnknownEmployee
	}
	return id, nil
}

func (m *MockDirectory) ClientExists(_ context.Context, clientID sale.ClientID) (bool, error) {
	m.mu.Lock()
	m.ClientChecked = append(m.ClientChecked, clientID)
	m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.Clients[clientID]
	return ok, nil
}

func (m *MockDirectory) ClientContact(_ context.Context, clientID sale.ClientID) (store.Contact, error) {
	if m.Err != nil {
		return store.Contact{}, m.Err
	}
	c, ok := m.Clients[clientID]
	if !ok {
		return store.Contact{}, sale.ErrUnknownClient
	}
	return c, nil
}

func (m *MockDirectory) ProductName(_ context.Context, productID sale.ProductID) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	name, ok := m.Products[productID]
	if !ok {
		return "", sale.ErrUnknownProduct
	}
	return name, nil
}

// MockAuditSink keeps every recorded audit event.
type MockAuditSink struct {
	mu     sync.Mutex
	Events []audit.Event
	Err    error
}

func NewMockAuditSink() *MockAuditSink {
	return &MockAuditSink{Events: make([]audit.Event, 0)}
}

func (m *MockAuditSink) Record(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
	return m.Err
}

// Recorded returns a copy of the events seen so far.
func (m *MockAuditSink) Recorded() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Event(nil), m.Events...)
}
