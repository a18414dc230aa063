package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/glowcart/checkout-api/internal/domain/cart"
	"github.com/glowcart/checkout-api/internal/domain/money"
	"github.com/glowcart/checkout-api/internal/domain/pricing"
)

type cartResponse struct {
	Items  []cart.LineItem    `json:"items"`
	Totals pricing.OrderTotal `json:"totals"`
}

func (h *Handler) cartResponse(s *cart.Store) cartResponse {
	items := s.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	// Shipping is unknown until checkout; the cart view prices it at zero.
	return cartResponse{Items: items, Totals: s.Totals(decimal.Zero, h.taxRate)}
}

// GetCart returns the session's line items and a running total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	s := h.carts.Get(r.Context(), session)
	writeJSON(r.Context(), w, http.StatusOK, h.cartResponse(s))
}

// AddCartItem adds a product to the cart. Adding a product that is already
// present increments its quantity by one.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var item cart.LineItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if item.ProductID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "productId is required")
		return
	}

	s := h.carts.Get(r.Context(), session)
	s.Add(item)
	h.flush(r, session)

	writeJSON(r.Context(), w, http.StatusOK, h.cartResponse(s))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetCartItemQuantity replaces a line's quantity. Zero or negative removes
// the line.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s := h.carts.Get(r.Context(), session)
	s.SetQuantity(chi.URLParam(r, "productID"), req.Quantity)
	h.flush(r, session)

	writeJSON(r.Context(), w, http.StatusOK, h.cartResponse(s))
}

// RemoveCartItem deletes a line from the cart. Removing an absent product
// succeeds.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	s := h.carts.Get(r.Context(), session)
	s.Remove(chi.URLParam(r, "productID"))
	h.flush(r, session)

	writeJSON(r.Context(), w, http.StatusOK, h.cartResponse(s))
}

// ClearCart empties the session's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	h.carts.Get(r.Context(), session).Clear()
	h.flush(r, session)

	w.WriteHeader(http.StatusNoContent)
}

// flush persists the cart snapshot. Persistence is best-effort; a failure
// is logged and the request still succeeds.
func (h *Handler) flush(r *http.Request, session string) {
	if err := h.carts.Flush(r.Context(), session); err != nil {
		zctx.From(r.Context()).Warn("persist cart snapshot",
			zap.String("session_id", session),
			zap.Error(err),
		)
	}
}

// ShippingQuote resolves the shipping rate for a destination without
// placing an order. The subtotal comes from the query when given,
// otherwise from the session's cart, otherwise zero.
func (h *Handler) ShippingQuote(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "country query parameter is required")
		return
	}

	subtotal := decimal.Zero
	if raw := r.URL.Query().Get("subtotal"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "invalid subtotal")
			return
		}
		subtotal = parsed
	} else if session := r.Header.Get(HeaderSessionID); session != "" {
		subtotal = cartSubtotal(h.carts.Get(r.Context(), session))
	}

	rate := h.shipping.Resolve(r.Context(), country, subtotal)
	writeJSON(r.Context(), w, http.StatusOK, rate)
}

func cartSubtotal(s *cart.Store) decimal.Decimal {
	items := s.Items()
	lines := make([]decimal.Decimal, len(items))
	for i, it := range items {
		lines[i] = money.Line(it.UnitPrice, it.Quantity)
	}
	return money.Sum(lines...)
}

// CheckoutPrefill returns the signed-in customer's contact details for
// form prefill, or 204 when the request carries no identity.
func (h *Handler) CheckoutPrefill(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	profile, ok := h.identity.FromRequest(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, profile)
}
