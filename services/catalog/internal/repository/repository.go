package repository

import (
	"context"

	"github.com/ozanyurtsever/shopcore/pkg/pagination"
	"github.com/ozanyurtsever/shopcore/services/catalog/internal/domain"
)

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySlug retrieves a product by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List returns a page of products and the total count. Only published
	// products are returned unless includeAll is set.
	List(ctx context.Context, params pagination.Params, includeAll bool) ([]domain.Product, int, error)

	// Update modifies an existing product.
	Update(ctx context.Context, product *domain.Product) error
}
