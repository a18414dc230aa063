// Package pricing computes the authoritative order total. Every checkout
// surface must obtain its figures from Compute; a second formula anywhere
// in the repository is a correctness bug, because the amount captured by
// the payment processor and the amount recorded on the order must never
// diverge.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/glowcart/checkout-api/internal/domain/money"
)

// DefaultTaxRate is the tax rate applied when the caller does not supply one.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// Line is the pricing-relevant slice of a cart line item.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// OrderTotal is the derived monetary snapshot of a cart plus shipping.
// It is never stored on its own; the orchestrator copies it into the
// order record at the moment of creation.
type OrderTotal struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
}

// Compute derives subtotal, tax and grand total from the given lines and
// shipping cost. Tax is charged on shipping as well as goods.
func Compute(lines []Line, shippingCost, taxRate decimal.Decimal) OrderTotal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(money.Line(l.UnitPrice, l.Quantity))
	}

	tax := money.Round2(subtotal.Add(shippingCost).Mul(taxRate))
	grand := money.Round2(money.Sum(subtotal, shippingCost, tax))

	return OrderTotal{
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Tax:          tax,
		GrandTotal:   grand,
	}
}
