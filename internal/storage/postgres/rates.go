package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowcart/checkout-api/internal/domain/shipping"
)

var _ shipping.OverrideSource = (*RateRepository)(nil)

// RateRepository holds operator-configured shipping overrides. It is both
// the resolver's override source and the backing for the operator rate
// management API.
type RateRepository struct {
	pool *pgxpool.Pool
}

// NewRateRepository returns a RateRepository that uses the given pool.
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

const findRateSQL = `SELECT country, cost, currency, delivery_days, active
	FROM shipping_rates WHERE country = $1`

// FindByCountry looks up the override row for a normalized country key.
// Returns shipping.ErrNoOverride when no row exists.
func (r *RateRepository) FindByCountry(ctx context.Context, country string) (*shipping.Rate, error) {
	var rate shipping.Rate
	err := r.pool.QueryRow(ctx, findRateSQL, country).Scan(
		&rate.Country, &rate.Cost, &rate.Currency, &rate.EstimatedDeliveryDays, &rate.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrNoOverride
		}
		return nil, fmt.Errorf("finding shipping rate for %q: %w", country, err)
	}
	rate.Source = shipping.SourceOverride
	return &rate, nil
}

const upsertRateSQL = `INSERT INTO shipping_rates (country, cost, currency, delivery_days, active)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (country) DO UPDATE
	SET cost = EXCLUDED.cost,
	    currency = EXCLUDED.currency,
	    delivery_days = EXCLUDED.delivery_days,
	    active = EXCLUDED.active,
	    updated_at = now()`

// Upsert creates or replaces the override row for rate.Country. The
// country is normalized before writing so lookups always hit.
func (r *RateRepository) Upsert(ctx context.Context, rate shipping.Rate) error {
	country := shipping.Normalize(rate.Country)
	if country == "" {
		return errors.New("country is required")
	}
	currency := rate.Currency
	if currency == "" {
		currency = "USD"
	}

	_, err := r.pool.Exec(ctx, upsertRateSQL,
		country, rate.Cost, currency, rate.EstimatedDeliveryDays, rate.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting shipping rate for %q: %w", country, err)
	}
	return nil
}

const deactivateRateSQL = `UPDATE shipping_rates
	SET active = FALSE, updated_at = now() WHERE country = $1`

// Deactivate turns off the override row for a country without deleting its
// history. Returns shipping.ErrNoOverride when no row exists.
func (r *RateRepository) Deactivate(ctx context.Context, country string) error {
	tag, err := r.pool.Exec(ctx, deactivateRateSQL, shipping.Normalize(country))
	if err != nil {
		return fmt.Errorf("deactivating shipping rate for %q: %w", country, err)
	}
	if tag.RowsAffected() == 0 {
		return shipping.ErrNoOverride
	}
	return nil
}

const listRatesSQL = `SELECT country, cost, currency, delivery_days, active
	FROM shipping_rates ORDER BY country`

// List returns all override rows, active or not.
func (r *RateRepository) List(ctx context.Context) ([]shipping.Rate, error) {
	rows, err := r.pool.Query(ctx, listRatesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing shipping rates: %w", err)
	}
	defer rows.Close()

	var out []shipping.Rate
	for rows.Next() {
		var rate shipping.Rate
		if err := rows.Scan(&rate.Country, &rate.Cost, &rate.Currency, &rate.EstimatedDeliveryDays, &rate.Active); err != nil {
			return nil, fmt.Errorf("scanning shipping rate: %w", err)
		}
		rate.Source = shipping.SourceOverride
		out = append(out, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading shipping rates: %w", err)
	}
	return out, nil
}
