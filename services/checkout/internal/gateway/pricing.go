package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/httpclient"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
)

// PricingClient resolves authoritative unit prices from the catalog
// service. Calls go through a circuit breaker so a struggling catalog
// fails checkout fast instead of piling up requests.
type PricingClient struct {
	baseURL string
	client  *httpclient.CircuitBreakerClient
}

func NewPricingClient(baseURL string, client *httpclient.CircuitBreakerClient) *PricingClient {
	return &PricingClient{baseURL: baseURL, client: client}
}

type quoteEnvelope struct {
	Data domain.PriceQuote `json:"data"`
}

// PriceOf returns the current price of a product. An unknown or
// unsellable product reports apperrors.ErrNotFound; catalog outages
// report an UpstreamError.
func (c *PricingClient) PriceOf(ctx context.Context, productID string) (*domain.PriceQuote, error) {
	url := fmt.Sprintf("%s/api/v1/products/%s/price", c.baseURL, productID)

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "catalog-service", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperrors.ErrNotFound
	default:
		err := httpclient.ParseResponseError(resp, "catalog-service")
		if errors.Is(err, apperrors.ErrServiceUnavail) {
			return nil, &domain.UpstreamError{Service: "catalog-service", Err: err}
		}
		return nil, err
	}

	var envelope quoteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &domain.UpstreamError{Service: "catalog-service", Err: fmt.Errorf("decode quote: %w", err)}
	}
	return &envelope.Data, nil
}
