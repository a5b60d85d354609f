package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/example/bizpanel/internal/domain/event"
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/example/bizpanel/internal/email"
	"github.com/example/bizpanel/internal/infrastructure/store"
)

// ReceiptSender is satisfied by *email.Service.
type ReceiptSender interface {
	SendSaleReceipt(to string, receipt email.Receipt) error
}

// Directory is satisfied by *store.Directory.
type Directory interface {
	ClientContact(ctx context.Context, clientID sale.ClientID) (store.Contact, error)
	ProductName(ctx context.Context, productID sale.ProductID) (string, error)
}

// Handler processes events for sending notifications
type Handler struct {
	emailService ReceiptSender
	directory    Directory
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc ReceiptSender, directory Directory) *Handler {
	return &Handler{
		emailService: emailSvc,
		directory:    directory,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	// Only process SaleRecorded events
	if env.EventType == sale.EventSaleRecorded {
		return h.handleSaleRecorded(ctx, env)
	}

	return nil
}

func (h *Handler) handleSaleRecorded(ctx context.Context, env event.Envelope) error {
	var e sale.SaleRecorded
	if err := env.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal SaleRecorded event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing SaleRecorded event for sale %d, client %d", e.SaleID, e.ClientID)

	contact, err := h.directory.ClientContact(ctx, e.ClientID)
	if errors.Is(err, sale.ErrUnknownClient) {
		log.Printf("[Notifier] Client not found: %d", e.ClientID)
		return nil
	}
	if err != nil {
		log.Printf("[Notifier] Error getting client %d: %v", e.ClientID, err)
		return err
	}
	if contact.Email == "" {
		log.Printf("[Notifier] Client %d has no email address, skipping receipt", e.ClientID)
		return nil
	}

	items := make([]email.ReceiptItem, len(e.Lines))
	for i, line := range e.Lines {
		// A missing name falls back to the product ID in the template.
		name, err := h.directory.ProductName(ctx, line.ProductID)
		if err != nil {
			name = ""
		}
		items[i] = email.ReceiptItem{
			ProductID: int64(line.ProductID),
			Name:      name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		}
	}

	receipt := email.Receipt{
		SaleID:     int64(e.SaleID),
		ClientName: contact.Name,
		SoldAt:     e.SoldAt,
		Total:      e.Total,
		Items:      items,
	}
	if err := h.emailService.SendSaleReceipt(contact.Email, receipt); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", contact.Email, err)
		return err
	}

	log.Printf("[Notifier] Receipt email sent to %s for sale %d", contact.Email, e.SaleID)
	return nil
}
