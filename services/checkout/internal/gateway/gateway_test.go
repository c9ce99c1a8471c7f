package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/httpclient"
	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
)

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:      2 * time.Second,
		MaxRetries:   0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	})
}

func authedContext() context.Context {
	return middleware.ContextWithBearerToken(context.Background(), "caller-token")
}

func TestCartClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"user_id":"u-1","lines":[{"product_id":"p-1","quantity":2}]}}`))
	}))
	defer srv.Close()

	client := NewCartClient(srv.URL, testClient())

	lines, err := client.Fetch(authedContext())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.CartLine{ProductID: "p-1", Quantity: 2}, lines[0])
}

func TestCartClient_Fetch_Unreachable(t *testing.T) {
	client := NewCartClient("http://127.0.0.1:1", testClient())

	_, err := client.Fetch(authedContext())

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "cart-service", upstream.Service)
}

func TestCartClient_Clear(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewCartClient(srv.URL, testClient())

	require.NoError(t, client.Clear(authedContext()))
	assert.Equal(t, http.MethodDelete, method)
}

func newPricingClient(t *testing.T, baseURL string) *PricingClient {
	t.Helper()
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	cb := httpclient.NewCircuitBreakerClient(testClient(), httpclient.CircuitBreakerConfig{
		Name:         t.Name(),
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  100,
	}, l)
	return NewPricingClient(baseURL, cb)
}

func TestPricingClient_PriceOf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/p-1/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"product_id":"p-1","price":"19.99","currency":"USD"}}`))
	}))
	defer srv.Close()

	quote, err := newPricingClient(t, srv.URL).PriceOf(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", quote.ProductID)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestPricingClient_PriceOf_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"price for product p-x not found"}}`))
	}))
	defer srv.Close()

	_, err := newPricingClient(t, srv.URL).PriceOf(context.Background(), "p-x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderClient_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"checkout_id":"co-1"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"order-1","total":"39.98","currency":"USD"}}`))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, testClient())

	order, err := client.Create(authedContext(), "co-1", "USD", "39.98", []domain.PricedLine{
		{ProductID: "p-1", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99"), Currency: "USD"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestOrderClient_Create_RejectedIsNotAmbiguous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"total mismatch"}}`))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, testClient())

	_, err := client.Create(authedContext(), "co-1", "USD", "1.00", nil)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.False(t, persistErr.Ambiguous)
}

func TestOrderClient_Create_ServerErrorIsAmbiguous(t *testing.T) {
	// A 502 from a proxy can hide a write that already committed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, testClient())

	_, err := client.Create(authedContext(), "co-1", "USD", "1.00", nil)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.True(t, persistErr.Ambiguous)
}

func TestOrderClient_Create_TimeoutIsAmbiguous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, testClient())

	ctx, cancel := context.WithTimeout(authedContext(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Create(ctx, "co-1", "USD", "1.00", nil)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.True(t, persistErr.Ambiguous)
}

func TestOrderClient_FindByCheckoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/by-checkout/co-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"order-1","total":"39.98","currency":"USD"}}`))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, testClient())

	order, err := client.FindByCheckoutID(authedContext(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestOrderClient_FindByCheckoutID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"no order"}}`))
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, testClient())

	_, err := client.FindByCheckoutID(authedContext(), "co-ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIsAmbiguous(t *testing.T) {
	assert.True(t, isAmbiguous(context.DeadlineExceeded))
	assert.False(t, isAmbiguous(errors.New("connection refused")))
}
