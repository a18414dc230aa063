// Package shipping resolves a destination country to a shipping fee and an
// estimated delivery window through a layered source chain: free-shipping
// threshold, operator-configured overrides, a compiled-in country table,
// and a fixed default. Resolution is deterministic and never blocks
// checkout; an unreachable override source degrades silently to the lower
// tiers.
package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Source identifies which tier of the chain produced a rate.
type Source string

const (
	// SourceFreeThreshold marks orders over the free-shipping threshold.
	SourceFreeThreshold Source = "free-threshold"
	// SourceOverride marks rates from the operator override table.
	SourceOverride Source = "override"
	// SourceTable marks rates from the compiled-in country table.
	SourceTable Source = "table"
	// SourceDefault marks the fixed fallback rate.
	SourceDefault Source = "default"
)

// FreeShippingThreshold is the subtotal at or above which shipping is free
// for every destination.
var FreeShippingThreshold = decimal.RequireFromString("200")

// DefaultCost is the fee charged when no tier matches the destination.
var DefaultCost = decimal.RequireFromString("25")

// defaultCurrency applies to every compiled-in rate. Override rows carry
// their own currency.
const defaultCurrency = "USD"

// Rate is a resolved shipping fee. Only override rows have a lifecycle
// (created, updated and deactivated by an operator); table and default
// rates are compiled-in constants.
type Rate struct {
	Country               string          `json:"country"`
	Cost                  decimal.Decimal `json:"cost"`
	Currency              string          `json:"currency"`
	EstimatedDeliveryDays int             `json:"estimatedDeliveryDays"`
	Active                bool            `json:"isActive"`
	Source                Source          `json:"source"`
}

// ErrNoOverride is returned by an OverrideSource when no override row
// exists for the country.
var ErrNoOverride = errors.New("no shipping override for country")

// OverrideSource looks up operator-configured rates. The country argument
// is already normalized (lower-case, trimmed, single-spaced).
type OverrideSource interface {
	FindByCountry(ctx context.Context, country string) (*Rate, error)
}
