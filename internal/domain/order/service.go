package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/glowcart/checkout-api/internal/docstore"
	"github.com/glowcart/checkout-api/internal/domain/pricing"
)

// ErrOrderNotFound is returned when no order exists for the given id.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError aborts order placement before any write occurs. It names
// every missing required field.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// PrimaryWriteError wraps a failure to persist the order record itself.
// It is fatal: nothing downstream makes sense without the primary write.
type PrimaryWriteError struct {
	OrderID string
	Err     error
}

func (e *PrimaryWriteError) Error() string {
	return fmt.Sprintf("persist order %s: %v", e.OrderID, e.Err)
}

func (e *PrimaryWriteError) Unwrap() error { return e.Err }

// InvalidTransitionError reports an illegal order status transition.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// StepFailure records one failed best-effort secondary step. These are
// observability data, not errors: the order is placed regardless.
type StepFailure struct {
	Step string `json:"step"`
	Err  error  `json:"-"`
}

// Notifier dispatches the order confirmation through the external
// messaging collaborator. Failures are soft; the orchestrator catches and
// reports them, never raises them.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}

// PlaceOrderRequest carries everything the orchestrator needs: contact and
// destination, the cart snapshot, the already-resolved shipping fee, and
// the capture confirmation from the external payment gateway.
type PlaceOrderRequest struct {
	Contact          Contact
	Address          Address
	Items            []Item
	ShippingCost     decimal.Decimal
	TaxRate          decimal.Decimal
	PaymentReference string
}

// PlaceOrderResult is the placed order plus the list of secondary steps
// that failed, if any. Callers treat the order as successfully placed
// regardless of the failure list.
type PlaceOrderResult struct {
	Order             *Order
	SecondaryFailures []StepFailure
}

// Config tunes the best-effort fan-out. Zero values take defaults.
type Config struct {
	// SecondaryTimeout bounds each attempt of each secondary step so a
	// hang in one cannot stall the others or the overall return.
	SecondaryTimeout time.Duration
	// SecondaryAttempts is the total number of tries per secondary step.
	SecondaryAttempts int
	// RetryBackoff is the initial delay between attempts; it doubles
	// after each failure. The primary write is never retried here.
	RetryBackoff time.Duration
}

func (c *Config) setDefaults() {
	if c.SecondaryTimeout <= 0 {
		c.SecondaryTimeout = 5 * time.Second
	}
	if c.SecondaryAttempts <= 0 {
		c.SecondaryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
}

// Service is the order orchestrator.
type Service struct {
	store    docstore.Store
	notifier Notifier
	ids      *IDGenerator
	cfg      Config

	tracer            trace.Tracer
	placed            metric.Int64Counter
	secondaryFailures metric.Int64Counter
}

// NewService creates the orchestrator. notifier must not be nil; wire the
// log-only notifier when no transport is configured.
func NewService(store docstore.Store, notifier Notifier, cfg Config) *Service {
	cfg.setDefaults()

	meter := otel.Meter("glowcart.checkout.order")
	placed, _ := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders successfully persisted"))
	secondaryFailures, _ := meter.Int64Counter("order_secondary_failures_total",
		metric.WithDescription("Best-effort secondary steps that failed after retries"))

	return &Service{
		store:             store,
		notifier:          notifier,
		ids:               NewIDGenerator(),
		cfg:               cfg,
		tracer:            otel.Tracer("glowcart.checkout.order"),
		placed:            placed,
		secondaryFailures: secondaryFailures,
	}
}

// PlaceOrder validates the request, persists the order, then fans out the
// four best-effort secondary steps concurrently: customer ledger entry,
// invoice, shipment record, confirmation notification. A failure in any
// secondary step never reverses the committed order write; it is retried
// with backoff, then logged and reported in the result.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder")
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	taxRate := req.TaxRate
	if taxRate.IsZero() {
		taxRate = pricing.DefaultTaxRate
	}

	lines := make([]pricing.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	totals := pricing.Compute(lines, req.ShippingCost, taxRate)

	now := time.Now().UTC()
	o := &Order{
		ID:               s.ids.Generate(),
		FullName:         req.Contact.FullName,
		Email:            req.Contact.Email,
		Phone:            req.Contact.Phone,
		Address:          req.Address.Display(),
		ShippingAddress:  req.Address,
		Items:            req.Items,
		Totals:           totals,
		PaymentReference: req.PaymentReference,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.store.Create(ctx, CollectionOrders, o); err != nil {
		return nil, &PrimaryWriteError{OrderID: o.ID, Err: err}
	}

	s.placed.Add(ctx, 1)
	zctx.From(ctx).Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("grand_total", o.Totals.GrandTotal.String()),
	)

	failures := s.fanOutSecondary(ctx, o)

	return &PlaceOrderResult{Order: o, SecondaryFailures: failures}, nil
}

// fanOutSecondary runs the four best-effort steps concurrently. Steps are
// mutually independent; each carries its own timeout and retry budget, and
// an error in one never prevents the others from being attempted.
func (s *Service) fanOutSecondary(ctx context.Context, o *Order) []StepFailure {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"ledger", func(ctx context.Context) error { return s.writeLedgerEntry(ctx, o) }},
		{"invoice", func(ctx context.Context) error { return s.writeInvoice(ctx, o) }},
		{"shipment", func(ctx context.Context) error { return s.writeShipment(ctx, o) }},
		{"notification", func(ctx context.Context) error { return s.notifier.SendOrderConfirmation(ctx, o) }},
	}

	results := make([]*StepFailure, len(steps))

	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			results[i] = s.runWithRetry(ctx, o.ID, step.name, step.fn)
			return nil
		})
	}
	_ = g.Wait()

	var failures []StepFailure
	for _, f := range results {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	return failures
}

// runWithRetry executes one secondary step with a per-attempt timeout and
// bounded backoff. It returns nil on success, otherwise the final failure.
func (s *Service) runWithRetry(ctx context.Context, orderID, name string, fn func(context.Context) error) *StepFailure {
	var lastErr error
	backoff := s.cfg.RetryBackoff

	for attempt := 1; attempt <= s.cfg.SecondaryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				break
			}
			backoff *= 2
		}

		stepCtx, cancel := context.WithTimeout(ctx, s.cfg.SecondaryTimeout)
		err := fn(stepCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	s.secondaryFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", name)))
	zctx.From(ctx).Warn("secondary order step failed",
		zap.String("order_id", orderID),
		zap.String("step", name),
		zap.Error(lastErr),
	)
	return &StepFailure{Step: name, Err: lastErr}
}

func (s *Service) writeLedgerEntry(ctx context.Context, o *Order) error {
	_, err := s.store.Create(ctx, CollectionLedger, map[string]any{
		"orderId":   o.ID,
		"email":     o.Email,
		"entryType": "sale",
		"amount":    o.Totals.GrandTotal,
		"currency":  "USD",
		"createdAt": o.CreatedAt,
	})
	return err
}

func (s *Service) writeInvoice(ctx context.Context, o *Order) error {
	_, err := s.store.Create(ctx, CollectionInvoices, map[string]any{
		"invoiceNumber": "INV-" + o.ID,
		"orderId":       o.ID,
		"subtotal":      o.Totals.Subtotal,
		"shippingCost":  o.Totals.ShippingCost,
		"tax":           o.Totals.Tax,
		"amount":        o.Totals.GrandTotal,
		"issuedAt":      o.CreatedAt,
	})
	return err
}

func (s *Service) writeShipment(ctx context.Context, o *Order) error {
	_, err := s.store.Create(ctx, CollectionShipments, map[string]any{
		"orderId":   o.ID,
		"recipient": o.FullName,
		"address":   o.Address,
		"country":   o.ShippingAddress.Country,
		"status":    "awaiting_pickup",
		"createdAt": o.CreatedAt,
	})
	return err
}

// Get returns the order with the given id.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	o, _, err := s.find(ctx, orderID)
	return o, err
}

// UpdateStatus applies a fulfillment status transition. This is the only
// mutation orders support after creation; it is invoked by the external
// fulfillment process, never by the checkout pipeline itself.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	o, docID, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	now := time.Now().UTC()
	err = s.store.Update(ctx, CollectionOrders, docID, docstore.Patch{
		"status":    next,
		"updatedAt": now,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "update order %s status", orderID)
	}

	o.Status = next
	o.UpdatedAt = now
	return o, nil
}

func (s *Service) find(ctx context.Context, orderID string) (*Order, string, error) {
	records, err := s.store.Query(ctx, CollectionOrders, docstore.Filter{"orderId": orderID})
	if err != nil {
		return nil, "", errors.Wrapf(err, "query order %s", orderID)
	}
	if len(records) == 0 {
		return nil, "", ErrOrderNotFound
	}

	var o Order
	if err := json.Unmarshal(records[0].Data, &o); err != nil {
		return nil, "", errors.Wrapf(err, "decode order %s", orderID)
	}
	return &o, records[0].ID, nil
}

// validate checks presence of required contact, address and product
// fields. It is the only step allowed to abort the whole operation, and it
// runs before any write.
func validate(req PlaceOrderRequest) error {
	var missing []string

	if strings.TrimSpace(req.Contact.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(req.Contact.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.Address.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(req.Address.AddressLine) == "" {
		missing = append(missing, "addressLine")
	}
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			missing = append(missing, fmt.Sprintf("items[%d].productId", i))
		}
		if it.Quantity < 1 {
			missing = append(missing, fmt.Sprintf("items[%d].quantity", i))
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
