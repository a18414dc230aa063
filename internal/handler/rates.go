package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/glowcart/checkout-api/internal/domain/shipping"
)

// ListShippingRates returns every operator override, active or not.
func (h *Handler) ListShippingRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		writeError(ctx, w, http.StatusServiceUnavailable, "rate management is not configured")
		return
	}

	rates, err := h.rates.List(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "failed to list shipping rates")
		return
	}
	if rates == nil {
		rates = []shipping.Rate{}
	}
	writeJSON(ctx, w, http.StatusOK, rates)
}

// UpsertShippingRate creates or replaces the override for a country.
func (h *Handler) UpsertShippingRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		writeError(ctx, w, http.StatusServiceUnavailable, "rate management is not configured")
		return
	}

	var rate shipping.Rate
	if err := decodeJSON(r, &rate); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if rate.Country == "" {
		writeError(ctx, w, http.StatusBadRequest, "country is required")
		return
	}
	if rate.Cost.IsNegative() {
		writeError(ctx, w, http.StatusBadRequest, "cost must not be negative")
		return
	}

	if err := h.rates.Upsert(ctx, rate); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "failed to save shipping rate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateShippingRate turns off the override for a country. The row is
// kept; the resolver falls through to its static table.
func (h *Handler) DeactivateShippingRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		writeError(ctx, w, http.StatusServiceUnavailable, "rate management is not configured")
		return
	}

	err := h.rates.Deactivate(ctx, chi.URLParam(r, "country"))
	if err != nil {
		if errors.Is(err, shipping.ErrNoOverride) {
			writeError(ctx, w, http.StatusNotFound, "no override for that country")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "failed to deactivate shipping rate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
