package command

import (
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// CreateSale asks to record Cart on behalf of the logged-in user.
type CreateSale struct {
	UserID sale.UserID
	Cart   sale.RawCart
}

// SaleResult is returned for a committed sale.
type SaleResult struct {
	SaleID     sale.SaleID     `json:"sale_id"`
	ClientID   sale.ClientID   `json:"client_id"`
	EmployeeID sale.EmployeeID `json:"employee_id"`
	Total      decimal.Decimal `json:"total"`
	Message    string          `json:"message"`
}
