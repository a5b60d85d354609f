package sale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RawCart is an untrusted cart as decoded from a request. Field values may
// be JSON numbers, strings or nil.
type RawCart struct {
	ClientID any       `json:"client_id"`
	Items    []RawLine `json:"items"`
}

type RawLine struct {
	ProductID any `json:"product_id"`
	Quantity  any `json:"quantity"`
	UnitPrice any `json:"unit_price"`
}

// formLine is the item shape posted by the sale form in items_json.
type formLine struct {
	ProductID any `json:"producto_id"`
	Quantity  any `json:"cantidad"`
	UnitPrice any `json:"precio_unitario"`
}

// DecodeRawCart reads a JSON API body, keeping numbers as json.Number so
// prices never pass through float64.
func DecodeRawCart(body []byte) (RawCart, error) {
	var raw RawCart
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return RawCart{}, &ValidationError{Line: -1, Field: "body", Err: fmt.Errorf("%w: %v", ErrInvalidLine, err)}
	}
	return raw, nil
}

// DecodeFormCart converts the sale form fields into a RawCart. A blank
// items field is treated as an empty list.
func DecodeFormCart(clientField, itemsJSON string) (RawCart, error) {
	raw := RawCart{ClientID: clientField}
	if strings.TrimSpace(itemsJSON) == "" {
		return raw, nil
	}

	var items []formLine
	dec := json.NewDecoder(strings.NewReader(itemsJSON))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return RawCart{}, &ValidationError{Line: -1, Field: "items_json", Err: fmt.Errorf("%w: %v", ErrInvalidLine, err)}
	}
	raw.Items = make([]RawLine, 0, len(items))
	for _, item := range items {
		raw.Items = append(raw.Items, RawLine(item))
	}
	return raw, nil
}

// ParseCart coerces every field of raw to its strict type. The first bad
// field rejects the whole cart.
func ParseCart(raw RawCart) (Cart, error) {
	buyer, ok := parsePositiveInt(raw.ClientID)
	if !ok {
		return Cart{}, &ValidationError{Line: -1, Field: "client_id", Value: describe(raw.ClientID), Err: ErrMissingClient}
	}
	if len(raw.Items) == 0 {
		return Cart{}, &ValidationError{Line: -1, Err: ErrEmptyCart}
	}

	lines := make([]Line, 0, len(raw.Items))
	for i, item := range raw.Items {
		productID, ok := parsePositiveInt(item.ProductID)
		if !ok {
			return Cart{}, &ValidationError{Line: i, Field: "product_id", Value: describe(item.ProductID), Err: ErrInvalidLine}
		}
		quantity, ok := parsePositiveInt(item.Quantity)
		if !ok || quantity > math.MaxInt32 {
			return Cart{}, &ValidationError{Line: i, Field: "quantity", Value: describe(item.Quantity), Err: ErrInvalidLine}
		}
		price, ok := parsePositiveDecimal(item.UnitPrice)
		if !ok {
			return Cart{}, &ValidationError{Line: i, Field: "unit_price", Value: describe(item.UnitPrice), Err: ErrInvalidLine}
		}
		lines = append(lines, Line{
			ProductID: ProductID(productID),
			Quantity:  int(quantity),
			UnitPrice: price,
		})
	}

	return NewCart(ClientID(buyer), lines)
}

func parsePositiveInt(v any) (int64, bool) {
	var n int64
	switch t := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t.String()), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case int:
		n = int64(t)
	case int64:
		n = t
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt64 || t < math.MinInt64 {
			return 0, false
		}
		n = int64(t)
	default:
		return 0, false
	}
	return n, n > 0
}

// Unit prices carry at most four fractional digits and stay below one
// trillion. The exponent is checked first so that no comparison ever
// rescales an arbitrarily large coefficient.
const (
	maxPriceScale    = 4
	maxPriceExponent = 12
	minPriceExponent = -18
)

var maxUnitPrice = decimal.New(1, maxPriceExponent)

func parsePositiveDecimal(v any) (decimal.Decimal, bool) {
	var d decimal.Decimal
	switch t := v.(type) {
	case json.Number:
		parsed, err := decimal.NewFromString(strings.TrimSpace(t.String()))
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	case decimal.Decimal:
		d = t
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(t)
	default:
		return decimal.Zero, false
	}
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < minPriceExponent || exp > maxPriceExponent {
		return decimal.Zero, false
	}
	if d.GreaterThan(maxUnitPrice) || !d.Equal(d.Truncate(maxPriceScale)) {
		return decimal.Zero, false
	}
	return d, true
}

func describe(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
