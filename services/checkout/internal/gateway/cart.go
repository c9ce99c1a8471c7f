package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ozanyurtsever/shopcore/pkg/httpclient"
	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
)

// CartClient talks to the cart service on behalf of the checking-out
// user. The caller's bearer token is forwarded so the cart service sees
// the same identity.
type CartClient struct {
	baseURL string
	client  *httpclient.Client
}

func NewCartClient(baseURL string, client *httpclient.Client) *CartClient {
	return &CartClient{baseURL: baseURL, client: client}
}

type cartEnvelope struct {
	Data struct {
		UserID string            `json:"user_id"`
		Lines  []domain.CartLine `json:"lines"`
	} `json:"data"`
}

// Fetch returns the current cart lines of the authenticated user.
func (c *CartClient) Fetch(ctx context.Context) ([]domain.CartLine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/cart", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create cart request: %w", err)
	}
	forwardAuth(ctx, req)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "cart-service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Service: "cart-service",
			Err:     httpclient.ParseResponseError(resp, "cart-service"),
		}
	}

	var envelope cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &domain.UpstreamError{Service: "cart-service", Err: fmt.Errorf("decode cart: %w", err)}
	}
	return envelope.Data.Lines, nil
}

// Clear empties the authenticated user's cart.
func (c *CartClient) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/cart", http.NoBody)
	if err != nil {
		return fmt.Errorf("create cart clear request: %w", err)
	}
	forwardAuth(ctx, req)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return &domain.UpstreamError{Service: "cart-service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return &domain.UpstreamError{
			Service: "cart-service",
			Err:     httpclient.ParseResponseError(resp, "cart-service"),
		}
	}
	return nil
}

// forwardAuth copies the caller's bearer token onto an outgoing request.
func forwardAuth(ctx context.Context, req *http.Request) {
	if token := middleware.BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
