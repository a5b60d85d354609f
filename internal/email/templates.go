package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the data shown in a sale receipt.
type Receipt struct {
	SaleID     int64
	ClientName string
	SoldAt     time.Time
	Total      decimal.Decimal
	Items      []ReceiptItem
}

// ReceiptItem represents a sale line for email purposes
type ReceiptItem struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// BuildSaleReceiptBody builds the HTML body for a sale receipt
func BuildSaleReceiptBody(r Receipt) string {
	var itemsHTML strings.Builder
	for _, item := range r.Items {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Product #%d", item.ProductID)
		}
		fmt.Fprintf(&itemsHTML,
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">$%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">$%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			FormatMoney(item.UnitPrice),
			FormatMoney(item.Subtotal),
		)
	}

	greeting := "Hello"
	if r.ClientName != "" {
		greeting = "Hello " + html.EscapeString(r.ClientName)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #2c3e50; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your purchase</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">%s,</p>
		<p>This is the receipt for the sale registered on %s.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Sale number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%d</p>
		</div>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Product</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Quantity</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #2c3e50; margin-left: 10px;">$%s</span>
		</div>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. Please do not reply.
		</p>
	</div>
</body>
</html>`, greeting, r.SoldAt.Format("2006-01-02 15:04"), r.SaleID, itemsHTML.String(), FormatMoney(r.Total))
}

// FormatMoney renders d with two decimals and comma thousands separators.
func FormatMoney(d decimal.Decimal) string {
	str := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(str, ".")

	var result strings.Builder
	if d.IsNegative() {
		result.WriteString("-")
	}

	remainder := len(intPart) % 3
	if remainder > 0 {
		result.WriteString(intPart[:remainder])
		if len(intPart) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(intPart); i += 3 {
		result.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			result.WriteString(",")
		}
	}

	result.WriteString(".")
	result.WriteString(frac)
	return result.String()
}
