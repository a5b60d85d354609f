package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/bizpanel/internal/domain/event"
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/example/bizpanel/internal/email"
	"github.com/example/bizpanel/internal/infrastructure/store"
	"github.com/example/bizpanel/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentReceipt struct {
	to      string
	receipt email.Receipt
}

type mockSender struct {
	sent []sentReceipt
	err  error
}

func (m *mockSender) SendSaleReceipt(to string, receipt email.Receipt) error {
	m.sent = append(m.sent, sentReceipt{to: to, receipt: receipt})
	return m.err
}

func saleRecordedMessage(t *testing.T, clientID sale.ClientID) []byte {
	t.Helper()
	payload := sale.SaleRecorded{
		SaleID:     12,
		ClientID:   clientID,
		EmployeeID: 7,
		Total:      decimal.RequireFromString("25.00"),
		SoldAt:     time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		Lines: []sale.SaleRecordedLine{
			{ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00")},
			{ProductID: 4, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), Subtotal: decimal.RequireFromString("5.00")},
		},
	}
	env, err := event.New(sale.AggregateType, "12", sale.EventSaleRecorded, payload, payload.SoldAt)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func newHandler() (*Handler, *mockSender, *mocks.MockDirectory) {
	sender := &mockSender{}
	dir := mocks.NewMockDirectory()
	dir.Clients[1] = store.Contact{Name: "Juan Perez", Email: "juan@example.com"}
	dir.Clients[2] = store.Contact{Name: "No Mail"}
	dir.Products[3] = "Keyboard"
	return NewHandler(sender, dir), sender, dir
}

// ============================================
// SaleRecorded
// ============================================

func TestHandleEvent_SendsReceipt(t *testing.T) {
	h, sender, _ := newHandler()

	err := h.HandleEvent(context.Background(), []byte("12"), saleRecordedMessage(t, 1))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	got := sender.sent[0]
	assert.Equal(t, "juan@example.com", got.to)
	assert.Equal(t, int64(12), got.receipt.SaleID)
	assert.Equal(t, "Juan Perez", got.receipt.ClientName)
	assert.True(t, got.receipt.Total.Equal(decimal.RequireFromString("25")))
	require.Len(t, got.receipt.Items, 2)
	assert.Equal(t, "Keyboard", got.receipt.Items[0].Name)
	assert.Empty(t, got.receipt.Items[1].Name)
	assert.Equal(t, 2, got.receipt.Items[0].Quantity)
}

func TestHandleEvent_SkipsClientsWithoutEmail(t *testing.T) {
	h, sender, _ := newHandler()

	require.NoError(t, h.HandleEvent(context.Background(), nil, saleRecordedMessage(t, 2)))
	require.NoError(t, h.HandleEvent(context.Background(), nil, saleRecordedMessage(t, 99)))
	assert.Empty(t, sender.sent)
}

func TestHandleEvent_Errors(t *testing.T) {
	t.Run("malformed message", func(t *testing.T) {
		h, _, _ := newHandler()
		assert.Error(t, h.HandleEvent(context.Background(), nil, []byte("{")))
	})

	t.Run("directory down", func(t *testing.T) {
		h, sender, dir := newHandler()
		dir.Err = errors.New("db down")
		assert.Error(t, h.HandleEvent(context.Background(), nil, saleRecordedMessage(t, 1)))
		assert.Empty(t, sender.sent)
	})

	t.Run("smtp failure", func(t *testing.T) {
		h, sender, _ := newHandler()
		sender.err = errors.New("relay denied")
		assert.EqualError(t, h.HandleEvent(context.Background(), nil, saleRecordedMessage(t, 1)), "relay denied")
	})
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	h, sender, _ := newHandler()

	env, err := event.New("Activity", "7", "ActivityLogged", map[string]string{"action": "x"}, time.Now())
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))
	assert.Empty(t, sender.sent)
}
