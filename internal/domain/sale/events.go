package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventSaleRecorded = "SaleRecorded"

type SaleRecordedLine struct {
	ProductID ProductID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleRecorded struct {
	SaleID     SaleID             `json:"sale_id"`
	ClientID   ClientID           `json:"client_id"`
	EmployeeID EmployeeID         `json:"employee_id"`
	Total      decimal.Decimal    `json:"total"`
	Lines      []SaleRecordedLine `json:"lines"`
	SoldAt     time.Time          `json:"sold_at"`
}

func saleRecorded(s *Sale) SaleRecorded {
	lines := make([]SaleRecordedLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, SaleRecordedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return SaleRecorded{
		SaleID:     s.ID,
		ClientID:   s.ClientID,
		EmployeeID: s.EmployeeID,
		Total:      s.Total,
		Lines:      lines,
		SoldAt:     s.SoldAt,
	}
}
