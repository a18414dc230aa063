package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_TwoIdenticalItems(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("149.99"), Quantity: 1},
		{UnitPrice: d("149.99"), Quantity: 1},
	}

	total := Compute(lines, decimal.Zero, DefaultTaxRate)

	assert.True(t, d("299.98").Equal(total.Subtotal), "subtotal = %s", total.Subtotal)
	assert.True(t, d("24").Equal(total.Tax), "tax = %s", total.Tax)
	assert.True(t, d("323.98").Equal(total.GrandTotal), "grand total = %s", total.GrandTotal)
}

func TestCompute_TaxAppliesToShipping(t *testing.T) {
	lines := []Line{{UnitPrice: d("100"), Quantity: 1}}

	total := Compute(lines, d("10"), DefaultTaxRate)

	// (100 + 10) * 0.08 = 8.80
	assert.True(t, d("8.8").Equal(total.Tax), "tax = %s", total.Tax)
	assert.True(t, d("118.8").Equal(total.GrandTotal), "grand total = %s", total.GrandTotal)
}

func TestCompute_Deterministic(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("19.99"), Quantity: 3},
		{UnitPrice: d("5.25"), Quantity: 2},
	}

	a := Compute(lines, d("7.5"), DefaultTaxRate)
	b := Compute(lines, d("7.5"), DefaultTaxRate)

	assert.True(t, a.Subtotal.Equal(b.Subtotal))
	assert.True(t, a.Tax.Equal(b.Tax))
	assert.True(t, a.GrandTotal.Equal(b.GrandTotal))
	assert.True(t, a.GrandTotal.Equal(Compute(lines, d("7.5"), DefaultTaxRate).Subtotal.
		Add(a.ShippingCost).Add(a.Tax).Round(2)))
}

func TestCompute_EmptyCart(t *testing.T) {
	total := Compute(nil, decimal.Zero, DefaultTaxRate)

	assert.True(t, total.Subtotal.IsZero())
	assert.True(t, total.Tax.IsZero())
	assert.True(t, total.GrandTotal.IsZero())
}
