package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/bizpanel/internal/audit"
	"github.com/example/bizpanel/internal/domain/inventory"
	"github.com/example/bizpanel/internal/domain/sale"
)

type SaleRecorder interface {
	RecordSale(ctx context.Context, cart sale.Cart, seller sale.EmployeeID) (sale.SaleID, error)
}

type Directory interface {
	ResolveEmployeeForUser(ctx context.Context, userID sale.UserID) (sale.EmployeeID, error)
	ClientExists(ctx context.Context, clientID sale.ClientID) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actor int64, action, detail string, severity audit.Severity)
}

type Handler struct {
	sales     SaleRecorder
	directory Directory
	audit     AuditRecorder
}

func NewHandler(sales SaleRecorder, directory Directory, recorder AuditRecorder) *Handler {
	return &Handler{
		sales:     sales,
		directory: directory,
		audit:     recorder,
	}
}

// CreateSale resolves the seller, validates the cart and records the sale.
// Every call, successful or not, leaves exactly one audit entry.
func (h *Handler) CreateSale(ctx context.Context, cmd CreateSale) (*SaleResult, error) {
	actor := int64(cmd.UserID)

	seller, err := h.directory.ResolveEmployeeForUser(ctx, cmd.UserID)
	if err != nil {
		if !errors.Is(err, sale.ErrUnknownEmployee) {
			err = &sale.StorageError{Op: "resolve employee", Err: err}
		}
		log.Printf("[Sales] Cannot resolve employee for user %d: %v", cmd.UserID, err)
		h.audit.Record(ctx, actor, audit.ActionSaleFailed,
			fmt.Sprintf("Could not resolve employee for user ID: %d", cmd.UserID), audit.SeverityError)
		return nil, err
	}

	cart, err := sale.ParseCart(cmd.Cart)
	if err != nil {
		return nil, h.fail(ctx, actor, err)
	}

	exists, err := h.directory.ClientExists(ctx, cart.Buyer())
	if err != nil {
		return nil, h.fail(ctx, actor, &sale.StorageError{Op: "client lookup", Err: err})
	}
	if !exists {
		return nil, h.fail(ctx, actor, &sale.ValidationError{
			Line:  -1,
			Field: "client_id",
			Value: fmt.Sprint(cart.Buyer()),
			Err:   sale.ErrUnknownClient,
		})
	}

	id, err := h.sales.RecordSale(ctx, cart, seller)
	if err != nil {
		return nil, h.fail(ctx, actor, err)
	}

	total := cart.Total()
	h.audit.Record(ctx, actor, audit.ActionSaleCreated,
		audit.SaleCreatedDetail(int64(id), int64(cart.Buyer()), int64(seller), total), audit.SeverityNormal)
	log.Printf("[Sales] Sale %d recorded by employee %d for client %d, total %s", id, seller, cart.Buyer(), total.StringFixed(2))

	return &SaleResult{
		SaleID:     id,
		ClientID:   cart.Buyer(),
		EmployeeID: seller,
		Total:      total,
		Message:    SuccessMessage(id),
	}, nil
}

// Reject audits a request whose cart could not even be decoded and returns
// err unchanged.
func (h *Handler) Reject(ctx context.Context, userID sale.UserID, err error) error {
	return h.fail(ctx, int64(userID), err)
}

func (h *Handler) fail(ctx context.Context, actor int64, err error) error {
	h.audit.Record(ctx, actor, audit.ActionSaleFailed, audit.SaleFailedDetail(err), audit.SeverityError)
	return err
}

// SuccessMessage is shown to the user after a sale commits.
func SuccessMessage(id sale.SaleID) string {
	return fmt.Sprintf("Sale registered successfully with ID: %d.", id)
}

// FailureMessage turns a CreateSale error into text for the user. Storage
// details stay in the logs.
func FailureMessage(err error) string {
	var (
		validationErr *sale.ValidationError
		stockErr      *inventory.InsufficientStockError
		storageErr    *sale.StorageError
	)
	switch {
	case errors.Is(err, sale.ErrMissingClient):
		return "Please select a client."
	case errors.Is(err, sale.ErrEmptyCart):
		return "Add at least one product to the sale."
	case errors.Is(err, sale.ErrUnknownEmployee):
		return "Error: Could not identify the employee registering the sale."
	case errors.As(err, &stockErr):
		return "Error registering the sale: " + stockErr.Error()
	case errors.As(err, &validationErr):
		return "Error registering the sale: " + validationErr.Error()
	case errors.As(err, &storageErr):
		return "Error registering the sale: the database is unavailable, please try again."
	default:
		return "Error registering the sale: unexpected error."
	}
}
