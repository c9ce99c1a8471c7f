package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/pagination"
	"github.com/ozanyurtsever/shopcore/pkg/slug"
	"github.com/ozanyurtsever/shopcore/services/catalog/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/catalog/internal/repository"
)

// EventPublisher publishes catalog lifecycle events.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
}

// CatalogService implements product management and price quoting.
type CatalogService struct {
	products  repository.ProductRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewCatalogService(products repository.ProductRepository, publisher EventPublisher, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Status      string
	Price       decimal.Decimal
	Currency    string
}

func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price cannot be negative")
	}

	status := input.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		Status:      status,
		Price:       input.Price,
		Currency:    input.Currency,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	return s.products.GetBySlug(ctx, productSlug)
}

func (s *CatalogService) ListProducts(ctx context.Context, params pagination.Params, includeAll bool) (pagination.Result[domain.Product], error) {
	products, total, err := s.products.List(ctx, params, includeAll)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	return pagination.NewResult(products, total, params), nil
}

// UpdateProductInput carries updatable product fields. Nil pointers leave
// the current value unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Status      *string
	Price       *decimal.Decimal
	Currency    *string
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
		product.Slug = slug.Generate(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *input.Status))
		}
		product.Status = *input.Status
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, apperrors.InvalidInput("price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Currency != nil {
		product.Currency = *input.Currency
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// PriceOf returns the current price quote for a product. Only published
// products are quotable; draft and archived products report not found so
// callers cannot price items that are no longer for sale.
func (s *CatalogService) PriceOf(ctx context.Context, id string) (*domain.ProductPrice, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Purchasable() {
		return nil, apperrors.NotFound("price for product", id)
	}
	return &domain.ProductPrice{
		ProductID: product.ID,
		Price:     product.Price,
		Currency:  product.Currency,
	}, nil
}
