package order

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/checkout-api/internal/docstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Mocks ---

type mockNotifier struct {
	calls    atomic.Int32
	failures int32 // fail the first N calls
	err      error
}

func (m *mockNotifier) SendOrderConfirmation(_ context.Context, _ *Order) error {
	n := m.calls.Add(1)
	if m.err != nil && n <= m.failures {
		return m.err
	}
	if m.err != nil && m.failures == 0 {
		return m.err
	}
	return nil
}

// failingStore wraps a docstore and fails writes to selected collections.
type failingStore struct {
	docstore.Store
	failCollections map[string]error
}

func (f *failingStore) Create(ctx context.Context, collection string, doc any) (string, error) {
	if err, ok := f.failCollections[collection]; ok {
		return "", err
	}
	return f.Store.Create(ctx, collection, doc)
}

func testConfig() Config {
	return Config{
		SecondaryTimeout:  time.Second,
		SecondaryAttempts: 3,
		RetryBackoff:      time.Millisecond,
	}
}

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		Contact: Contact{FullName: "Amina Rahman", Email: "amina@example.com"},
		Address: Address{
			Country:     "Bangladesh",
			City:        "Dhaka",
			ZipCode:     "1209",
			AddressLine: "House 12, Road 5, Dhanmondi",
		},
		Items: []Item{
			{ProductID: "p-lipstick", Name: "Velvet Lipstick", UnitPrice: d("149.99"), Quantity: 1},
			{ProductID: "p-serum", Name: "Glow Serum", UnitPrice: d("149.99"), Quantity: 1},
		},
		ShippingCost:     decimal.Zero,
		PaymentReference: "pay_abc123",
	}
}

// --- PlaceOrder ---

func TestPlaceOrder_Success(t *testing.T) {
	store := docstore.NewMemory()
	notifier := &mockNotifier{}
	svc := NewService(store, notifier, testConfig())

	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	o := result.Order
	assert.Equal(t, StatusPending, o.Status)
	assert.NotEmpty(t, o.ID)
	assert.Empty(t, result.SecondaryFailures)

	// Monetary snapshot: 299.98 subtotal, 8% tax on goods+shipping.
	assert.True(t, d("299.98").Equal(o.Totals.Subtotal), "subtotal = %s", o.Totals.Subtotal)
	assert.True(t, d("24").Equal(o.Totals.Tax), "tax = %s", o.Totals.Tax)
	assert.True(t, d("323.98").Equal(o.Totals.GrandTotal), "grand total = %s", o.Totals.GrandTotal)

	assert.Equal(t, "House 12, Road 5, Dhanmondi, Dhaka, 1209, Bangladesh", o.Address)

	// One primary record plus exactly one of each secondary record.
	assert.Equal(t, 1, store.Count(CollectionOrders))
	assert.Equal(t, 1, store.Count(CollectionLedger))
	assert.Equal(t, 1, store.Count(CollectionInvoices))
	assert.Equal(t, 1, store.Count(CollectionShipments))
	assert.Equal(t, int32(1), notifier.calls.Load())
}

func TestPlaceOrder_MissingEmailAbortsBeforeAnyWrite(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, &mockNotifier{}, testConfig())

	req := validRequest()
	req.Contact.Email = ""

	_, err := svc.PlaceOrder(context.Background(), req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Missing, "email")

	for _, c := range []string{CollectionOrders, CollectionLedger, CollectionInvoices, CollectionShipments} {
		assert.Zero(t, store.Count(c), "collection %s must be empty", c)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())

	req := validRequest()
	req.Items = nil

	_, err := svc.PlaceOrder(context.Background(), req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Missing, "items")
}

func TestPlaceOrder_PrimaryWriteFailureIsFatal(t *testing.T) {
	store := &failingStore{
		Store:           docstore.NewMemory(),
		failCollections: map[string]error{CollectionOrders: errors.New("connection reset")},
	}
	notifier := &mockNotifier{}
	svc := NewService(store, notifier, testConfig())

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	var pwErr *PrimaryWriteError
	require.ErrorAs(t, err, &pwErr)
	// No secondary records are attempted when the primary write never succeeded.
	assert.Zero(t, notifier.calls.Load())
}

func TestPlaceOrder_NotifierFailureIsSoft(t *testing.T) {
	store := docstore.NewMemory()
	notifier := &mockNotifier{err: errors.New("smtp unreachable")}
	svc := NewService(store, notifier, testConfig())

	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err, "notifier failure must never surface from PlaceOrder")

	assert.Equal(t, StatusPending, result.Order.Status)
	assert.NotEmpty(t, result.Order.ID)

	require.Len(t, result.SecondaryFailures, 1)
	assert.Equal(t, "notification", result.SecondaryFailures[0].Step)

	// The other secondaries were still attempted and succeeded.
	assert.Equal(t, 1, store.Count(CollectionLedger))
	assert.Equal(t, 1, store.Count(CollectionInvoices))
	assert.Equal(t, 1, store.Count(CollectionShipments))
}

func TestPlaceOrder_OneSecondaryFailureDoesNotBlockOthers(t *testing.T) {
	store := &failingStore{
		Store:           docstore.NewMemory(),
		failCollections: map[string]error{CollectionLedger: errors.New("ledger down")},
	}
	svc := NewService(store, &mockNotifier{}, testConfig())

	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, result.SecondaryFailures, 1)
	assert.Equal(t, "ledger", result.SecondaryFailures[0].Step)

	mem := store.Store.(*docstore.Memory)
	assert.Equal(t, 1, mem.Count(CollectionOrders))
	assert.Equal(t, 1, mem.Count(CollectionInvoices))
	assert.Equal(t, 1, mem.Count(CollectionShipments))
}

func TestPlaceOrder_SecondaryStepRetriesUntilSuccess(t *testing.T) {
	store := docstore.NewMemory()
	notifier := &mockNotifier{err: errors.New("transient"), failures: 2}
	svc := NewService(store, notifier, testConfig())

	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Empty(t, result.SecondaryFailures)
	assert.Equal(t, int32(3), notifier.calls.Load())
}

func TestPlaceOrder_DefaultTaxRate(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())

	req := validRequest()
	req.TaxRate = d("0.10")

	result, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	// (299.98 + 0) * 0.10 = 30.00 with the explicit rate.
	assert.True(t, d("30").Equal(result.Order.Totals.Tax), "tax = %s", result.Order.Totals.Tax)
}

// --- Get / UpdateStatus ---

func placeTestOrder(t *testing.T, svc *Service) *Order {
	t.Helper()
	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	return result.Order
}

func TestGet_RoundTripsMonetarySnapshot(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())
	placed := placeTestOrder(t, svc)

	got, err := svc.Get(context.Background(), placed.ID)
	require.NoError(t, err)

	assert.Equal(t, placed.ID, got.ID)
	assert.True(t, placed.Totals.GrandTotal.Equal(got.Totals.GrandTotal))
	assert.Equal(t, StatusPending, got.Status)
	require.Len(t, got.Items, 2)
	assert.True(t, d("149.99").Equal(got.Items[0].UnitPrice))
}

func TestGet_UnknownOrder(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())

	_, err := svc.Get(context.Background(), "ORD-0-NOPE")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())
	placed := placeTestOrder(t, svc)
	ctx := context.Background()

	for _, next := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		o, err := svc.UpdateStatus(ctx, placed.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, o.Status)
	}

	got, err := svc.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, got.Status)
}

func TestUpdateStatus_SkippingStatesIsRejected(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())
	placed := placeTestOrder(t, svc)

	_, err := svc.UpdateStatus(context.Background(), placed.ID, StatusDelivered)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusPending, itErr.From)
	assert.Equal(t, StatusDelivered, itErr.To)
}

func TestUpdateStatus_TerminalStatesAreFinal(t *testing.T) {
	svc := NewService(docstore.NewMemory(), &mockNotifier{}, testConfig())
	placed := placeTestOrder(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, placed.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, placed.ID, StatusProcessing)
	var itErr *InvalidTransitionError
	assert.ErrorAs(t, err, &itErr)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusProcessing, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("teleported")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
