// Package order turns a cart snapshot plus shipping and contact details
// into a durable order record with best-effort secondary bookkeeping.
package order

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/glowcart/checkout-api/internal/domain/pricing"
)

// Document-store collections written by the checkout pipeline.
const (
	CollectionOrders    = "orders"
	CollectionLedger    = "ledger_entries"
	CollectionInvoices  = "invoices"
	CollectionShipments = "shipments"
)

// Status is the fulfillment state of an order. The checkout pipeline only
// ever creates orders in StatusPending; every later transition is driven
// by an explicit status-update call from the fulfillment process.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ErrUnknownStatus is returned when parsing an unrecognized status value.
var ErrUnknownStatus = errors.New("unknown order status")

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
}

// CanTransitionTo reports whether next is a legal successor state.
// The happy path is pending → processing → shipped → delivered; pending
// and processing may also abort to cancelled. No transition skips states.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}

// Contact is the customer contact block captured at checkout.
type Contact struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// Address is the structured shipping destination.
type Address struct {
	Country     string `json:"country"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	AddressLine string `json:"addressLine"`
}

// Display flattens the address to the single string recorded on the order.
func (a Address) Display() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.AddressLine, a.City, a.State, a.ZipCode, a.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// Item is one product line on a placed order.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"productName"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color,omitempty"`
}

// Order is the durable record of a placed purchase. One record holds the
// whole cart; Items is the line list and Totals the immutable monetary
// snapshot taken at creation. After creation only Status and UpdatedAt
// ever change, and never through this pipeline.
type Order struct {
	ID               string             `json:"orderId"`
	FullName         string             `json:"fullName"`
	Email            string             `json:"email"`
	Phone            string             `json:"phone,omitempty"`
	Address          string             `json:"address"`
	ShippingAddress  Address            `json:"shippingAddress"`
	Items            []Item             `json:"items"`
	Totals           pricing.OrderTotal `json:"totals"`
	PaymentReference string             `json:"paymentReference,omitempty"`
	Status           Status             `json:"status"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}
