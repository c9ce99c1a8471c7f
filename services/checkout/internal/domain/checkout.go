package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors of the checkout flow.
var (
	// ErrEmptyCart means the user's cart had no lines when checkout started.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrConcurrentCheckout means another checkout for the same user is in
	// flight.
	ErrConcurrentCheckout = errors.New("checkout already in progress")

	// ErrMixedCurrency means the cart's products are priced in more than
	// one currency. An order carries a single currency, so such a cart
	// cannot be totalled.
	ErrMixedCurrency = errors.New("cart mixes currencies")
)

// PriceResolutionError means one or more cart products could not be
// priced, so no order can be placed for this cart as it stands.
type PriceResolutionError struct {
	ProductIDs []string
	Err        error
}

func (e *PriceResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve prices for products %v: %v", e.ProductIDs, e.Err)
}

func (e *PriceResolutionError) Unwrap() error {
	return e.Err
}

// PersistenceError means the order store rejected or failed the write. If
// Ambiguous is set the outcome is unknown (for example a timeout after the
// request was sent) and the caller should re-query by checkout ID before
// treating the attempt as failed.
type PersistenceError struct {
	Ambiguous bool
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("order persistence outcome unknown: %v", e.Err)
	}
	return fmt.Sprintf("order persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UpstreamError means a dependency of checkout (cart, catalog, order) was
// unreachable or answered with a server failure.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// CartLine is one product entry fetched from the cart service.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PricedLine is a cart line with its resolved unit price.
type PricedLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Currency  string
}

// Subtotal returns quantity times unit price.
func (l PricedLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PriceQuote is the catalog's price answer for one product.
type PriceQuote struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
}

// PersistedOrder is the order service's view of a stored order.
type PersistedOrder struct {
	ID       string `json:"id"`
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// Receipt is the successful outcome of a checkout. CartCleared is false
// when the order was placed but the cart could not be emptied; the cart
// is reconciled asynchronously in that case.
type Receipt struct {
	OrderID     string          `json:"order_id"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	CartCleared bool            `json:"cart_cleared"`
}
