// Package handler exposes the storefront API over HTTP. It is a thin
// translation layer: decode the request, delegate to the domain services,
// map domain errors to status codes.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/glowcart/checkout-api/internal/domain/cart"
	"github.com/glowcart/checkout-api/internal/domain/order"
	"github.com/glowcart/checkout-api/internal/domain/pricing"
	"github.com/glowcart/checkout-api/internal/domain/shipping"
	"github.com/glowcart/checkout-api/internal/identity"
)

// HeaderSessionID identifies the shopping session. Cart and checkout
// endpoints require it; there is no server-side session issuance.
const HeaderSessionID = "X-Session-ID"

// RateAdmin is the operator-facing side of the shipping override store.
type RateAdmin interface {
	Upsert(ctx context.Context, rate shipping.Rate) error
	Deactivate(ctx context.Context, country string) error
	List(ctx context.Context) ([]shipping.Rate, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// TaxRate overrides the default tax rate in totals and checkout.
	// Zero means use the pricing default.
	TaxRate decimal.Decimal
}

// Handler implements the storefront API, delegating business logic to the
// cart manager, shipping resolver and order service.
type Handler struct {
	carts    *cart.Manager
	orders   *order.Service
	shipping *shipping.Resolver
	rates    RateAdmin
	identity identity.Provider
	taxRate  decimal.Decimal
}

// New constructs a Handler. rates and ident may be nil; the corresponding
// endpoints then report the feature as unavailable.
func New(
	cfg Config,
	carts *cart.Manager,
	orders *order.Service,
	resolver *shipping.Resolver,
	rates RateAdmin,
	ident identity.Provider,
) *Handler {
	taxRate := cfg.TaxRate
	if taxRate.IsZero() {
		taxRate = pricing.DefaultTaxRate
	}
	return &Handler{
		carts:    carts,
		orders:   orders,
		shipping: resolver,
		rates:    rates,
		identity: ident,
		taxRate:  taxRate,
	}
}

// Routes returns the API router. The caller mounts it under its prefix and
// wraps it with whatever middleware the deployment needs.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Patch("/items/{productID}", h.SetCartItemQuantity)
		r.Delete("/items/{productID}", h.RemoveCartItem)
	})

	r.Get("/shipping/quote", h.ShippingQuote)
	r.Get("/checkout/prefill", h.CheckoutPrefill)
	r.Post("/checkout", h.Checkout)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/{orderID}", h.GetOrder)
		r.Patch("/{orderID}/status", h.UpdateOrderStatus)
	})

	r.Route("/admin/shipping-rates", func(r chi.Router) {
		r.Get("/", h.ListShippingRates)
		r.Put("/", h.UpsertShippingRate)
		r.Delete("/{country}", h.DeactivateShippingRate)
	})

	return r
}

type errorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(ctx).Error("encode response", zap.Error(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	writeJSON(ctx, w, code, errorResponse{Code: code, Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// sessionID extracts the session header, writing a 400 when absent.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(HeaderSessionID)
	if id == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "missing "+HeaderSessionID+" header")
		return "", false
	}
	return id, true
}
