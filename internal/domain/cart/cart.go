// Package cart holds the line items of a single shopping session and the
// pure mutation operations over them. A Store belongs to exactly one
// session; the mutex only serializes mutations against that session, there
// is no cross-session sharing.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/glowcart/checkout-api/internal/domain/pricing"
)

// LineItem is one product selection in the cart. Identity is ProductID
// alone; the selected color/variant is display metadata and does not
// create a second cart row.
type LineItem struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	TaxPerUnit decimal.Decimal `json:"taxPerUnit"`
	Image      string          `json:"image,omitempty"`
	Color      string          `json:"color,omitempty"`
}

// Store is the ordered line-item collection for one session.
type Store struct {
	mu    sync.Mutex
	items []LineItem
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// Add puts an item into the cart. If the product is already present its
// quantity is incremented by one; otherwise the item is appended with
// quantity one. Authorization is the caller's concern, not the cart's.
func (s *Store) Add(item LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	s.items = append(s.items, item)
}

// Remove deletes the row for productID. Removing an absent product is a no-op.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(productID)
}

func (s *Store) removeLocked(productID string) {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the quantity of the row for productID. A quantity
// of zero or less removes the row entirely; the cart never stores a
// non-positive quantity.
func (s *Store) SetQuantity(productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty <= 0 {
		s.removeLocked(productID)
		return
	}
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = qty
			return
		}
	}
}

// Clear empties the cart. Called by explicit user action and automatically
// after an order is successfully placed from the cart's contents.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the row for productID, or false when absent.
func (s *Store) Get(productID string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return LineItem{}, false
}

// Replace swaps the whole line-item list. Used when hydrating a session
// from persisted state.
func (s *Store) Replace(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]LineItem, len(items))
	copy(s.items, items)
}

// Totals recomputes the monetary snapshot from the live list on every
// call, so it can never return stale figures after a mutation. The math
// itself lives in pricing.Compute, the single total formula.
func (s *Store) Totals(shippingCost, taxRate decimal.Decimal) pricing.OrderTotal {
	items := s.Items()

	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	return pricing.Compute(lines, shippingCost, taxRate)
}
