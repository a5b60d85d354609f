package query

import (
	"context"
	"errors"
	"log"

	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/example/bizpanel/internal/infrastructure/store"
)

type SaleReader interface {
	GetSale(ctx context.Context, id sale.SaleID) (*sale.Sale, error)
}

type ActivityReader interface {
	List(ctx context.Context, q store.ActivityQuery) (*store.ActivityPage, error)
}

type Handler struct {
	sales    SaleReader
	activity ActivityReader
}

func NewHandler(sales SaleReader, activity ActivityReader) *Handler {
	return &Handler{sales: sales, activity: activity}
}

// GetSale returns a committed sale, or sale.ErrSaleNotFound.
func (h *Handler) GetSale(ctx context.Context, id sale.SaleID) (*sale.Sale, error) {
	if id <= 0 {
		return nil, sale.ErrSaleNotFound
	}
	s, err := h.sales.GetSale(ctx, id)
	if err != nil && !errors.Is(err, sale.ErrSaleNotFound) {
		log.Printf("[Query] Error getting sale %d: %v", id, err)
	}
	return s, err
}

// ListActivity returns one page of the activity log.
func (h *Handler) ListActivity(ctx context.Context, page int, search string) (*store.ActivityPage, error) {
	p, err := h.activity.List(ctx, store.ActivityQuery{Page: page, Search: search})
	if err != nil {
		log.Printf("[Query] Error listing activity (page %d, q=%q): %v", page, search, err)
		return nil, err
	}
	return p, nil
}
