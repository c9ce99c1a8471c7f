package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/httpclient"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
)

// OrderClient persists orders through the order service.
type OrderClient struct {
	baseURL string
	client  *httpclient.Client
}

func NewOrderClient(baseURL string, client *httpclient.Client) *OrderClient {
	return &OrderClient{baseURL: baseURL, client: client}
}

// orderItemPayload mirrors the order service's item request shape.
type orderItemPayload struct {
	ProductID       string `json:"product_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

type orderPayload struct {
	CheckoutID string             `json:"checkout_id"`
	Total      string             `json:"total"`
	Currency   string             `json:"currency"`
	Items      []orderItemPayload `json:"items"`
}

type orderEnvelope struct {
	Data domain.PersistedOrder `json:"data"`
}

// Create persists an order for the priced cart. A timeout after the
// request went out reports an ambiguous PersistenceError; the caller
// should then call FindByCheckoutID to learn the real outcome.
func (c *OrderClient) Create(ctx context.Context, checkoutID, currency, total string, lines []domain.PricedLine) (*domain.PersistedOrder, error) {
	payload := orderPayload{
		CheckoutID: checkoutID,
		Total:      total,
		Currency:   currency,
	}
	for _, line := range lines {
		payload.Items = append(payload.Items, orderItemPayload{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.UnitPrice.String(),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	forwardAuth(ctx, req)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, &domain.PersistenceError{Ambiguous: isAmbiguous(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		// A 5xx may come from a proxy in front of a write that already
		// committed, so the outcome is unknown; a 4xx is a definite
		// rejection.
		return nil, &domain.PersistenceError{
			Ambiguous: resp.StatusCode >= http.StatusInternalServerError,
			Err:       httpclient.ParseResponseError(resp, "order-service"),
		}
	}

	var envelope orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &domain.PersistenceError{Ambiguous: true, Err: fmt.Errorf("decode order: %w", err)}
	}
	return &envelope.Data, nil
}

// FindByCheckoutID returns the order a checkout attempt created, or
// apperrors.ErrNotFound if the attempt never committed.
func (c *OrderClient) FindByCheckoutID(ctx context.Context, checkoutID string) (*domain.PersistedOrder, error) {
	url := fmt.Sprintf("%s/api/v1/orders/by-checkout/%s", c.baseURL, checkoutID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create order lookup request: %w", err)
	}
	forwardAuth(ctx, req)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "order-service", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperrors.ErrNotFound
	default:
		return nil, &domain.UpstreamError{
			Service: "order-service",
			Err:     httpclient.ParseResponseError(resp, "order-service"),
		}
	}

	var envelope orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &domain.UpstreamError{Service: "order-service", Err: fmt.Errorf("decode order: %w", err)}
	}
	return &envelope.Data, nil
}

// isAmbiguous reports whether a transport error leaves the write outcome
// unknown. Timeouts and canceled contexts may have reached the server;
// connection refusals cannot have.
func isAmbiguous(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
