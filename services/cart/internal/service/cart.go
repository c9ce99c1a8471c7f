package service

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/services/cart/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/cart/internal/repository"
)

// CartService implements cart management on top of the repository.
type CartService struct {
	carts  repository.CartRepository
	logger *slog.Logger
}

func NewCartService(carts repository.CartRepository, logger *slog.Logger) *CartService {
	return &CartService{carts: carts, logger: logger}
}

// Get returns the user's cart. A user without a stored cart gets an empty
// one rather than an error.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(userID), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddLine adds quantity units of a product to the user's cart.
func (s *CartService) AddLine(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cart.AddLine(productID, quantity); err != nil {
		return nil, err
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart line added",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return cart, nil
}

// UpdateLine sets the quantity of an existing cart line. Zero removes it.
func (s *CartService) UpdateLine(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cart.SetLineQuantity(productID, quantity); err != nil {
		return nil, err
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveLine removes a product from the user's cart.
func (s *CartService) RemoveLine(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.RemoveLine(productID)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))
	return nil
}
