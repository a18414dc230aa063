package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/glowcart/checkout-api/internal/domain/order"
	"github.com/glowcart/checkout-api/internal/domain/shipping"
)

type checkoutRequest struct {
	FullName         string          `json:"fullName"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Address          order.Address   `json:"address"`
	PaymentReference string          `json:"paymentReference"`
	TaxRate          decimal.Decimal `json:"taxRate"`
}

type checkoutResponse struct {
	Order    *order.Order  `json:"order"`
	Shipping shipping.Rate `json:"shipping"`
	// Warnings lists secondary bookkeeping steps that failed. The order is
	// placed regardless; these are informational.
	Warnings []string `json:"warnings,omitempty"`
}

// Checkout places an order from the session's cart. On success the cart is
// cleared. Failed best-effort steps (invoice, ledger, shipment record,
// confirmation email) surface as warnings, never as an error status.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s := h.carts.Get(ctx, session)
	cartItems := s.Items()

	items := make([]order.Item, len(cartItems))
	for i, it := range cartItems {
		items[i] = order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Color:     it.Color,
		}
	}

	taxRate := req.TaxRate
	if taxRate.IsZero() {
		taxRate = h.taxRate
	}

	rate := h.shipping.Resolve(ctx, req.Address.Country, cartSubtotal(s))

	result, err := h.orders.PlaceOrder(ctx, order.PlaceOrderRequest{
		Contact: order.Contact{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
		},
		Address:          req.Address,
		Items:            items,
		ShippingCost:     rate.Cost,
		TaxRate:          taxRate,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		var vErr *order.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				Code:    http.StatusBadRequest,
				Message: vErr.Error(),
				Missing: vErr.Missing,
			})
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "failed to place order")
		return
	}

	s.Clear()
	h.flush(r, session)

	resp := checkoutResponse{Order: result.Order, Shipping: rate}
	for _, f := range result.SecondaryFailures {
		resp.Warnings = append(resp.Warnings, f.Step)
	}
	writeJSON(ctx, w, http.StatusCreated, resp)
}

// GetOrder returns a placed order by its public id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	o, err := h.orders.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			writeError(ctx, w, http.StatusNotFound, "order not found")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "failed to load order")
		return
	}
	writeJSON(ctx, w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus applies a fulfillment status transition.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	next, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "orderID"), next)
	if err != nil {
		var tErr *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeError(ctx, w, http.StatusNotFound, "order not found")
		case errors.As(err, &tErr):
			writeError(ctx, w, http.StatusConflict, tErr.Error())
		default:
			writeError(ctx, w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}
	writeJSON(ctx, w, http.StatusOK, o)
}
