package sale

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const AggregateType = "Sale"

type (
	SaleID     int64
	ClientID   int64
	EmployeeID int64
	ProductID  int64
	UserID     int64
)

// Line is one validated cart entry. UnitPrice is the price snapshot the
// caller submitted with the cart.
type Line struct {
	ProductID ProductID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal is quantity × unit price, exact.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a validated, immutable proposal for a sale. Build it with
// NewCart or ParseCart; the zero value is an empty cart and is rejected by
// the engine.
type Cart struct {
	buyer ClientID
	lines []Line
}

// NewCart validates typed lines and returns an immutable cart.
func NewCart(buyer ClientID, lines []Line) (Cart, error) {
	if buyer <= 0 {
		return Cart{}, &ValidationError{Line: -1, Field: "client_id", Err: ErrMissingClient}
	}
	if len(lines) == 0 {
		return Cart{}, &ValidationError{Line: -1, Err: ErrEmptyCart}
	}
	for i, line := range lines {
		switch {
		case line.ProductID <= 0:
			return Cart{}, &ValidationError{Line: i, Field: "product_id", Err: ErrInvalidLine}
		case line.Quantity <= 0:
			return Cart{}, &ValidationError{Line: i, Field: "quantity", Err: ErrInvalidLine}
		case !line.UnitPrice.IsPositive():
			return Cart{}, &ValidationError{Line: i, Field: "unit_price", Err: ErrInvalidLine}
		}
	}
	return Cart{buyer: buyer, lines: slices.Clone(lines)}, nil
}

func (c Cart) Buyer() ClientID { return c.buyer }

func (c Cart) Len() int { return len(c.lines) }

// Lines returns a copy of the cart lines in submission order.
func (c Cart) Lines() []Line { return slices.Clone(c.lines) }

// ProductIDs returns the distinct products in ascending order, which is the
// order the engine locks them in.
func (c Cart) ProductIDs() []ProductID {
	ids := make([]ProductID, 0, len(c.lines))
	for _, line := range c.lines {
		ids = append(ids, line.ProductID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Total is the sum of line subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Sale is a committed sale header with its lines.
type Sale struct {
	ID         SaleID          `json:"id"`
	ClientID   ClientID        `json:"client_id"`
	EmployeeID EmployeeID      `json:"employee_id"`
	SoldAt     time.Time       `json:"sold_at"`
	Total      decimal.Decimal `json:"total"`
	Lines      []SaleLine      `json:"lines"`
}

type SaleLine struct {
	SaleID    SaleID          `json:"sale_id"`
	ProductID ProductID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// newSale builds the header and lines for cart. The total is accumulated
// from the same subtotals stored on the lines.
func newSale(cart Cart, seller EmployeeID, soldAt time.Time) *Sale {
	s := &Sale{
		ClientID:   cart.buyer,
		EmployeeID: seller,
		SoldAt:     soldAt,
		Total:      decimal.Zero,
		Lines:      make([]SaleLine, 0, len(cart.lines)),
	}
	for _, line := range cart.lines {
		subtotal := line.Subtotal()
		s.Lines = append(s.Lines, SaleLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  subtotal,
		})
		s.Total = s.Total.Add(subtotal)
	}
	return s
}
