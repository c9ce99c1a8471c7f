package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/event"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/guard"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/service"
)

type stubCart struct {
	lines    []domain.CartLine
	clearErr error
}

func (s *stubCart) Fetch(context.Context) ([]domain.CartLine, error) { return s.lines, nil }
func (s *stubCart) Clear(context.Context) error                      { return s.clearErr }

type stubPricing struct{}

func (stubPricing) PriceOf(_ context.Context, productID string) (*domain.PriceQuote, error) {
	return &domain.PriceQuote{ProductID: productID, Price: decimal.RequireFromString("10.00"), Currency: "USD"}, nil
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, string, string, string, []domain.PricedLine) (*domain.PersistedOrder, error) {
	return &domain.PersistedOrder{ID: "order-1", Total: "10", Currency: "USD"}, nil
}

func (stubOrders) FindByCheckoutID(context.Context, string) (*domain.PersistedOrder, error) {
	return nil, errors.New("not used")
}

type stubPublisher struct{}

func (stubPublisher) PublishCheckoutCompleted(context.Context, event.CheckoutCompletedData) error {
	return nil
}
func (stubPublisher) PublishCartClearFailed(context.Context, event.CartClearFailedData) error {
	return nil
}

func newHandler(cart *stubCart) *CheckoutHandler {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewCheckoutService(cart, stubPricing{}, stubOrders{}, guard.NewMemory(), stubPublisher{}, l, service.StepTimeouts{})
	return NewCheckoutHandler(svc, l)
}

func doCheckout(t *testing.T, h *CheckoutHandler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", http.NoBody)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u-1"))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	return rec
}

func TestCheckoutHandler_Created(t *testing.T) {
	h := newHandler(&stubCart{lines: []domain.CartLine{{ProductID: "p-1", Quantity: 1}}})

	rec := doCheckout(t, h)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "order-1", body.Data.OrderID)
	assert.True(t, body.Data.CartCleared)
	assert.Empty(t, body.Data.Warning)
}

func TestCheckoutHandler_CreatedWithClearWarning(t *testing.T) {
	h := newHandler(&stubCart{
		lines:    []domain.CartLine{{ProductID: "p-1", Quantity: 1}},
		clearErr: errors.New("cart unavailable"),
	})

	rec := doCheckout(t, h)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.CartCleared)
	assert.NotEmpty(t, body.Data.Warning)
}

func TestCheckoutHandler_EmptyCart(t *testing.T) {
	h := newHandler(&stubCart{})

	rec := doCheckout(t, h)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
