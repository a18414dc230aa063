// Package money provides the currency arithmetic shared by every pricing
// and checkout component. All amounts are shopspring decimals; binary
// floats never enter the math.
package money

import "github.com/shopspring/decimal"

// Round2 rounds an amount to the currency's minor unit (2 decimal places)
// using half-up rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Line returns the extended price of a line: unit price times quantity.
func Line(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Sum adds any number of amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
