package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one purchased product line, priced at the moment of
// checkout. The captured price never changes even if the catalog does.
type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// Order is a completed purchase. CheckoutID is the originating checkout
// attempt; it is unique so replaying the same attempt cannot create a
// second order.
type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	CheckoutID string          `json:"checkout_id"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ComputedTotal returns the sum of quantity times captured price over all
// items.
func (o *Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
