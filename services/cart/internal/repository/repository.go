package repository

import (
	"context"

	"github.com/ozanyurtsever/shopcore/services/cart/internal/domain"
)

// CartRepository defines cart persistence operations. A missing cart is
// reported as apperrors.ErrNotFound; callers decide whether that means an
// empty cart or a failure.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
