package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/checkout-api/internal/domain/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lipstick() LineItem {
	return LineItem{
		ProductID: "p-lipstick",
		Name:      "Velvet Lipstick",
		UnitPrice: d("19.99"),
		Color:     "crimson",
	}
}

func TestAdd_SameProductTwiceIncrementsQuantity(t *testing.T) {
	s := NewStore()

	s.Add(lipstick())
	s.Add(lipstick())

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Add(LineItem{ProductID: "a", UnitPrice: d("1")})
	s.Add(LineItem{ProductID: "b", UnitPrice: d("2")})
	s.Add(LineItem{ProductID: "a", UnitPrice: d("1")})

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ProductID)
	assert.Equal(t, "b", items[1].ProductID)
}

func TestSetQuantity_ZeroRemovesRow(t *testing.T) {
	s := NewStore()
	s.Add(lipstick())

	s.SetQuantity("p-lipstick", 0)

	_, ok := s.Get("p-lipstick")
	assert.False(t, ok)
	assert.Empty(t, s.Items())
}

func TestSetQuantity_NegativeRemovesRow(t *testing.T) {
	s := NewStore()
	s.Add(lipstick())

	s.SetQuantity("p-lipstick", -3)

	_, ok := s.Get("p-lipstick")
	assert.False(t, ok)
}

func TestSetQuantity_ReplacesQuantity(t *testing.T) {
	s := NewStore()
	s.Add(lipstick())

	s.SetQuantity("p-lipstick", 5)

	item, ok := s.Get("p-lipstick")
	require.True(t, ok)
	assert.Equal(t, 5, item.Quantity)
}

func TestRemove_AbsentProductIsNoop(t *testing.T) {
	s := NewStore()
	s.Add(lipstick())

	s.Remove("p-missing")

	assert.Len(t, s.Items(), 1)
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Add(lipstick())
	s.Add(LineItem{ProductID: "p-serum", UnitPrice: d("45")})

	s.Clear()

	assert.Empty(t, s.Items())
}

func TestTotals_RecomputesAfterMutation(t *testing.T) {
	s := NewStore()
	s.Add(LineItem{ProductID: "p1", UnitPrice: d("149.99")})
	s.Add(LineItem{ProductID: "p1", UnitPrice: d("149.99")})

	total := s.Totals(decimal.Zero, pricing.DefaultTaxRate)
	assert.True(t, d("323.98").Equal(total.GrandTotal), "grand total = %s", total.GrandTotal)

	s.SetQuantity("p1", 1)

	total = s.Totals(decimal.Zero, pricing.DefaultTaxRate)
	assert.True(t, d("149.99").Equal(total.Subtotal), "subtotal = %s", total.Subtotal)
}

// --- Manager ---

type memPersister struct {
	saved   map[string][]LineItem
	loadErr error
}

func newMemPersister() *memPersister {
	return &memPersister{saved: make(map[string][]LineItem)}
}

func (m *memPersister) Load(_ context.Context, sessionID string) ([]LineItem, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	items, ok := m.saved[sessionID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return items, nil
}

func (m *memPersister) Save(_ context.Context, sessionID string, items []LineItem) error {
	m.saved[sessionID] = items
	return nil
}

func (m *memPersister) Delete(_ context.Context, sessionID string) error {
	delete(m.saved, sessionID)
	return nil
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	m.Get(ctx, "alice").Add(lipstick())

	assert.Len(t, m.Get(ctx, "alice").Items(), 1)
	assert.Empty(t, m.Get(ctx, "bob").Items())
}

func TestManager_HydratesFromPersister(t *testing.T) {
	p := newMemPersister()
	p.saved["alice"] = []LineItem{lipstick()}

	m := NewManager(p)

	items := m.Get(context.Background(), "alice").Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p-lipstick", items[0].ProductID)
}

func TestManager_FlushDeletesEmptyCart(t *testing.T) {
	p := newMemPersister()
	m := NewManager(p)
	ctx := context.Background()

	s := m.Get(ctx, "alice")
	s.Add(lipstick())
	require.NoError(t, m.Flush(ctx, "alice"))
	assert.Contains(t, p.saved, "alice")

	s.Clear()
	require.NoError(t, m.Flush(ctx, "alice"))
	assert.NotContains(t, p.saved, "alice")
}
