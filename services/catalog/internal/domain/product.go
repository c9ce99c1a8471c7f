package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product status constants.
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Product represents an item in the catalog. Price is an exact decimal
// amount in the product's currency.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Purchasable reports whether the product can be priced and sold.
func (p *Product) Purchasable() bool {
	return p.Status == ProductStatusPublished
}

// IsValidStatus checks whether the given string is a valid product status.
func IsValidStatus(status string) bool {
	switch status {
	case ProductStatusDraft, ProductStatusPublished, ProductStatusArchived:
		return true
	}
	return false
}

// ProductPrice is the price quote returned by the price lookup endpoint.
type ProductPrice struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
}
