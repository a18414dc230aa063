package shipping

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Resolver walks the source chain for a destination. It is safe for
// concurrent use.
type Resolver struct {
	overrides OverrideSource
}

// NewResolver creates a Resolver. overrides may be nil, in which case the
// override tier is skipped entirely.
func NewResolver(overrides OverrideSource) *Resolver {
	return &Resolver{overrides: overrides}
}

// Resolve returns the shipping rate for the destination, in strict
// precedence order: free-shipping threshold, operator override, static
// table, fixed default. It never returns an error; an unreachable override
// source is logged and skipped so that shipping resolution can never block
// checkout.
func (r *Resolver) Resolve(ctx context.Context, destinationCountry string, orderSubtotal decimal.Decimal) Rate {
	if orderSubtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return Rate{
			Country:               destinationCountry,
			Cost:                  decimal.Zero,
			Currency:              defaultCurrency,
			EstimatedDeliveryDays: r.estimateDays(destinationCountry),
			Active:                true,
			Source:                SourceFreeThreshold,
		}
	}

	country, matched := MatchCountry(destinationCountry)
	lookupKey := country
	if !matched {
		lookupKey = Normalize(destinationCountry)
	}

	if r.overrides != nil {
		rate, err := r.overrides.FindByCountry(ctx, lookupKey)
		switch {
		case err == nil && rate.Active:
			rate.Source = SourceOverride
			if rate.EstimatedDeliveryDays == 0 {
				rate.EstimatedDeliveryDays = r.estimateDays(country)
			}
			return *rate
		case err == nil:
			// Inactive override rows fall through to the table tier.
		case errors.Is(err, ErrNoOverride):
		default:
			zctx.From(ctx).Warn("shipping override source unavailable, degrading to table tier",
				zap.String("country", lookupKey),
				zap.Error(err),
			)
		}
	}

	if matched {
		if e, ok := rateTable[country]; ok {
			return Rate{
				Country:               country,
				Cost:                  e.cost,
				Currency:              defaultCurrency,
				EstimatedDeliveryDays: e.region.deliveryDays(),
				Active:                true,
				Source:                SourceTable,
			}
		}
	}

	return Rate{
		Country:               destinationCountry,
		Cost:                  DefaultCost,
		Currency:              defaultCurrency,
		EstimatedDeliveryDays: defaultDeliveryDays,
		Active:                true,
		Source:                SourceDefault,
	}
}

func (r *Resolver) estimateDays(destination string) int {
	if country, ok := MatchCountry(destination); ok {
		if e, found := rateTable[country]; found {
			return e.region.deliveryDays()
		}
	}
	return defaultDeliveryDays
}

// Normalize produces the case-insensitive, trimmed, single-spaced lookup
// key for a country name.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// MatchCountry finds a known country in a destination string. Clean names
// match directly; free-text addresses (multi-line or comma-joined) are
// split into segments which are scanned from the end, since the country is
// conventionally the last component. Within a segment, longer names win so
// that "united arab emirates" is never reported as "emirates" territory of
// a shorter alias. The first match scanning backwards is returned; this is
// a heuristic, not a guarantee.
func MatchCountry(destination string) (string, bool) {
	norm := Normalize(destination)
	if norm == "" {
		return "", false
	}

	key := canonical(norm)
	if _, ok := rateTable[key]; ok {
		return key, true
	}

	segments := splitSegments(destination)
	for i := len(segments) - 1; i >= 0; i-- {
		seg := Normalize(segments[i])
		if seg == "" {
			continue
		}
		if key := canonical(seg); hasRate(key) {
			return key, true
		}
		for _, name := range knownNames {
			if containsWord(seg, name) {
				return canonical(name), true
			}
		}
	}
	return "", false
}

func hasRate(key string) bool {
	_, ok := rateTable[key]
	return ok
}

func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
}

// containsWord reports whether name appears in seg on word boundaries,
// so "india" does not match inside "indiana".
func containsWord(seg, name string) bool {
	return strings.Contains(" "+seg+" ", " "+name+" ")
}
