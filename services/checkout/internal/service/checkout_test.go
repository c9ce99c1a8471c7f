package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/event"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/guard"
)

type mockCartGateway struct {
	mock.Mock
}

func (m *mockCartGateway) Fetch(ctx context.Context) ([]domain.CartLine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *mockCartGateway) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPriceResolver struct {
	mock.Mock
}

func (m *mockPriceResolver) PriceOf(ctx context.Context, productID string) (*domain.PriceQuote, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceQuote), args.Error(1)
}

type mockOrderGateway struct {
	mock.Mock
}

func (m *mockOrderGateway) Create(ctx context.Context, checkoutID, currency, total string, lines []domain.PricedLine) (*domain.PersistedOrder, error) {
	args := m.Called(ctx, checkoutID, currency, total, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PersistedOrder), args.Error(1)
}

func (m *mockOrderGateway) FindByCheckoutID(ctx context.Context, checkoutID string) (*domain.PersistedOrder, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PersistedOrder), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCheckoutCompleted(ctx context.Context, data event.CheckoutCompletedData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockPublisher) PublishCartClearFailed(ctx context.Context, data event.CartClearFailedData) error {
	return m.Called(ctx, data).Error(0)
}

type checkoutFixture struct {
	cart    *mockCartGateway
	pricing *mockPriceResolver
	orders  *mockOrderGateway
	pub     *mockPublisher
	svc     *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		cart:    new(mockCartGateway),
		pricing: new(mockPriceResolver),
		orders:  new(mockOrderGateway),
		pub:     new(mockPublisher),
	}
	f.svc = NewCheckoutService(
		f.cart, f.pricing, f.orders, guard.NewMemory(), f.pub,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		StepTimeouts{},
	)
	return f
}

func quote(productID, price string) *domain.PriceQuote {
	return quoteIn(productID, price, "USD")
}

func quoteIn(productID, price, currency string) *domain.PriceQuote {
	return &domain.PriceQuote{
		ProductID: productID,
		Price:     decimal.RequireFromString(price),
		Currency:  currency,
	}
}

func twoLineCart() []domain.CartLine {
	return []domain.CartLine{
		{ProductID: "p-1", Quantity: 2},
		{ProductID: "p-2", Quantity: 1},
	}
}

func TestCheckout_Success(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quote("p-2", "9.99"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, "USD", "49.97", mock.Anything).
		Return(&domain.PersistedOrder{ID: "order-1", Total: "49.97", Currency: "USD"}, nil)
	f.cart.On("Clear", mock.Anything).Return(nil)
	f.pub.On("PublishCheckoutCompleted", mock.Anything, mock.MatchedBy(func(d event.CheckoutCompletedData) bool {
		return d.OrderID == "order-1" && d.CartCleared
	})).Return(nil)

	receipt, err := f.svc.Checkout(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", receipt.OrderID)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("49.97")))
	assert.True(t, receipt.CartCleared)
	f.orders.AssertExpectations(t)
	f.pub.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return([]domain.CartLine{}, nil)

	_, err := f.svc.Checkout(context.Background(), "u-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_UnresolvablePrices(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.Checkout(context.Background(), "u-1")

	var priceErr *domain.PriceResolutionError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, []string{"p-2"}, priceErr.ProductIDs)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_MixedCurrencyCartRejected(t *testing.T) {
	f := newCheckoutFixture()

	// 19.99 USD + 10.00 EUR must not become a 29.99 USD order.
	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quoteIn("p-1", "19.99", "USD"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quoteIn("p-2", "10.00", "EUR"), nil)

	_, err := f.svc.Checkout(context.Background(), "u-1")

	var priceErr *domain.PriceResolutionError
	require.ErrorAs(t, err, &priceErr)
	assert.ErrorIs(t, err, domain.ErrMixedCurrency)
	assert.Equal(t, []string{"p-2"}, priceErr.ProductIDs)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.cart.AssertNotCalled(t, "Clear", mock.Anything)
}

func TestCheckout_PricingOutage(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, mock.Anything).
		Return(nil, &domain.UpstreamError{Service: "catalog-service", Err: errors.New("connection refused")})

	_, err := f.svc.Checkout(context.Background(), "u-1")

	var upstream *domain.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestCheckout_PersistFailure(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quote("p-2", "9.99"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.PersistenceError{Err: errors.New("constraint violation")})

	_, err := f.svc.Checkout(context.Background(), "u-1")

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	f.cart.AssertNotCalled(t, "Clear", mock.Anything)
}

func TestCheckout_AmbiguousPersistResolvedByLookup(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quote("p-2", "9.99"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.PersistenceError{Ambiguous: true, Err: context.DeadlineExceeded})
	f.orders.On("FindByCheckoutID", mock.Anything, mock.Anything).
		Return(&domain.PersistedOrder{ID: "order-landed", Total: "49.97", Currency: "USD"}, nil)
	f.cart.On("Clear", mock.Anything).Return(nil)
	f.pub.On("PublishCheckoutCompleted", mock.Anything, mock.Anything).Return(nil)

	receipt, err := f.svc.Checkout(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "order-landed", receipt.OrderID)
}

func TestCheckout_AmbiguousPersistNeverLanded(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quote("p-2", "9.99"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.PersistenceError{Ambiguous: true, Err: context.DeadlineExceeded})
	f.orders.On("FindByCheckoutID", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.Checkout(context.Background(), "u-1")

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.True(t, persistErr.Ambiguous)
	f.cart.AssertNotCalled(t, "Clear", mock.Anything)
}

func TestCheckout_FetchCartBoundedByStepTimeout(t *testing.T) {
	f := newCheckoutFixture()
	f.svc.timeouts.FetchCart = 20 * time.Millisecond

	f.cart.On("Fetch", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded)

	_, err := f.svc.Checkout(context.Background(), "u-1")
	assert.Error(t, err)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_AmbiguityLookupOutlivesPersistDeadline(t *testing.T) {
	f := newCheckoutFixture()
	f.svc.timeouts.PersistOrder = 10 * time.Millisecond

	hasDeadline := func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quote("p-2", "9.99"), nil)
	f.orders.On("Create", mock.MatchedBy(hasDeadline), mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, &domain.PersistenceError{Ambiguous: true, Err: context.DeadlineExceeded})
	// The re-query must not run under the persist step's expired deadline.
	f.orders.On("FindByCheckoutID", mock.MatchedBy(func(ctx context.Context) bool {
		return !hasDeadline(ctx)
	}), mock.Anything).
		Return(&domain.PersistedOrder{ID: "order-landed", Total: "49.97", Currency: "USD"}, nil)
	f.cart.On("Clear", mock.Anything).Return(nil)
	f.pub.On("PublishCheckoutCompleted", mock.Anything, mock.Anything).Return(nil)

	receipt, err := f.svc.Checkout(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "order-landed", receipt.OrderID)
	f.orders.AssertExpectations(t)
}

func TestCheckout_CartClearFailureStillSucceeds(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return(twoLineCart(), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "19.99"), nil)
	f.pricing.On("PriceOf", mock.Anything, "p-2").Return(quote("p-2", "9.99"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.PersistedOrder{ID: "order-1", Total: "49.97", Currency: "USD"}, nil)
	f.cart.On("Clear", mock.Anything).Return(errors.New("cart service down"))
	f.pub.On("PublishCartClearFailed", mock.Anything, mock.MatchedBy(func(d event.CartClearFailedData) bool {
		return d.UserID == "u-1" && d.OrderID == "order-1"
	})).Return(nil)
	f.pub.On("PublishCheckoutCompleted", mock.Anything, mock.Anything).Return(nil)

	receipt, err := f.svc.Checkout(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, receipt.CartCleared)
	f.cart.AssertNumberOfCalls(t, "Clear", 3)
	f.pub.AssertExpectations(t)
}

func TestCheckout_ConcurrentAttemptsRejected(t *testing.T) {
	f := newCheckoutFixture()

	fetchStarted := make(chan struct{})
	proceed := make(chan struct{})

	f.cart.On("Fetch", mock.Anything).Run(func(mock.Arguments) {
		close(fetchStarted)
		<-proceed
	}).Return([]domain.CartLine{{ProductID: "p-1", Quantity: 1}}, nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "5.00"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.PersistedOrder{ID: "order-1", Total: "5.00", Currency: "USD"}, nil)
	f.cart.On("Clear", mock.Anything).Return(nil)
	f.pub.On("PublishCheckoutCompleted", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.svc.Checkout(context.Background(), "u-1")
	}()

	<-fetchStarted
	_, secondErr := f.svc.Checkout(context.Background(), "u-1")
	close(proceed)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, domain.ErrConcurrentCheckout)
}

func TestCheckout_GuardReleasedAfterFailure(t *testing.T) {
	f := newCheckoutFixture()

	f.cart.On("Fetch", mock.Anything).Return([]domain.CartLine{}, nil)

	_, err := f.svc.Checkout(context.Background(), "u-1")
	require.ErrorIs(t, err, domain.ErrEmptyCart)

	// the empty-cart rejection must not leave the guard held
	_, err = f.svc.Checkout(context.Background(), "u-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckout_TotalIsExactDecimalSum(t *testing.T) {
	f := newCheckoutFixture()

	// 3 x 0.10 must be exactly 0.30
	f.cart.On("Fetch", mock.Anything).Return([]domain.CartLine{{ProductID: "p-1", Quantity: 3}}, nil)
	f.pricing.On("PriceOf", mock.Anything, "p-1").Return(quote("p-1", "0.10"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything, "USD", "0.3", mock.Anything).
		Return(&domain.PersistedOrder{ID: "order-1", Total: "0.3", Currency: "USD"}, nil)
	f.cart.On("Clear", mock.Anything).Return(nil)
	f.pub.On("PublishCheckoutCompleted", mock.Anything, mock.Anything).Return(nil)

	receipt, err := f.svc.Checkout(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "0.3", receipt.Total.String())
	f.orders.AssertExpectations(t)
}
