package domain

import (
	"time"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
)

const (
	// MaxLineQuantity caps how many units of a single product a cart may hold.
	MaxLineQuantity = 100
	// MaxLines caps how many distinct products a cart may hold.
	MaxLines = 50
)

// CartLine is one product entry in a cart.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is a user's shopping cart. Carts are keyed by user, one per user.
type Cart struct {
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart for the user.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// AddLine adds quantity units of a product, merging with an existing line
// for the same product. Quantities accumulate up to MaxLineQuantity.
func (c *Cart) AddLine(productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}

	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			if c.Lines[i].Quantity+quantity > MaxLineQuantity {
				return apperrors.InvalidInput("quantity limit per product exceeded")
			}
			c.Lines[i].Quantity += quantity
			return nil
		}
	}

	if len(c.Lines) >= MaxLines {
		return apperrors.InvalidInput("cart line limit exceeded")
	}
	if quantity > MaxLineQuantity {
		return apperrors.InvalidInput("quantity limit per product exceeded")
	}

	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

// RemoveLine removes the line for the product. Removing a product that is
// not in the cart is a no-op.
func (c *Cart) RemoveLine(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// SetLineQuantity replaces the quantity of an existing line. Setting a
// quantity of zero removes the line.
func (c *Cart) SetLineQuantity(productID string, quantity int) error {
	if quantity < 0 || quantity > MaxLineQuantity {
		return apperrors.InvalidInput("quantity out of range")
	}
	if quantity == 0 {
		c.RemoveLine(productID)
		return nil
	}

	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return nil
		}
	}
	return apperrors.NotFound("cart line", productID)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}
