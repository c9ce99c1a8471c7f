package repository

import (
	"context"

	"github.com/ozanyurtsever/shopcore/pkg/pagination"
	"github.com/ozanyurtsever/shopcore/services/order/internal/domain"
)

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	// Create inserts the order and all its items in one transaction.
	// Either everything is stored or nothing is.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByCheckoutID retrieves the order created by a checkout attempt,
	// if any.
	GetByCheckoutID(ctx context.Context, checkoutID string) (*domain.Order, error)

	// ListByUser returns the user's orders newest first, without items.
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Order, int, error)
}
