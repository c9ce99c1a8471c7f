package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/pagination"
	"github.com/ozanyurtsever/shopcore/services/catalog/internal/domain"
)

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, params pagination.Params, includeAll bool) ([]domain.Product, int, error) {
	args := m.Called(ctx, params, includeAll)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

type mockCatalogPublisher struct {
	mock.Mock
}

func (m *mockCatalogPublisher) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func newTestService(repo *mockProductRepository, pub *mockCatalogPublisher) *CatalogService {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCatalogService(repo, pub, l)
}

func TestCreateProduct(t *testing.T) {
	repo := new(mockProductRepository)
	pub := new(mockCatalogPublisher)
	svc := newTestService(repo, pub)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Slug == "cafe-grinder" && p.Status == domain.ProductStatusDraft
	})).Return(nil)
	pub.On("PublishProductCreated", mock.Anything, mock.Anything).Return(nil)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "Café Grinder",
		Price:    decimal.NewFromInt(45),
		Currency: "USD",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "cafe-grinder", product.Slug)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	svc := newTestService(new(mockProductRepository), new(mockCatalogPublisher))

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:  "Broken",
		Price: decimal.NewFromInt(-1),
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_PublishFailureDoesNotFail(t *testing.T) {
	repo := new(mockProductRepository)
	pub := new(mockCatalogPublisher)
	svc := newTestService(repo, pub)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishProductCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "Resilient Widget",
		Price:    decimal.NewFromInt(10),
		Currency: "USD",
	})

	require.NoError(t, err)
}

func TestPriceOf_Published(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestService(repo, new(mockCatalogPublisher))

	repo.On("GetByID", mock.Anything, "p1").Return(&domain.Product{
		ID:       "p1",
		Status:   domain.ProductStatusPublished,
		Price:    decimal.RequireFromString("19.99"),
		Currency: "USD",
	}, nil)

	quote, err := svc.PriceOf(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", quote.ProductID)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestPriceOf_DraftReportsNotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestService(repo, new(mockCatalogPublisher))

	repo.On("GetByID", mock.Anything, "p2").Return(&domain.Product{
		ID:     "p2",
		Status: domain.ProductStatusDraft,
		Price:  decimal.NewFromInt(5),
	}, nil)

	_, err := svc.PriceOf(context.Background(), "p2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPriceOf_MissingProduct(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestService(repo, new(mockCatalogPublisher))

	repo.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.PriceOf(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProduct_InvalidStatus(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestService(repo, new(mockCatalogPublisher))

	repo.On("GetByID", mock.Anything, "p1").Return(&domain.Product{
		ID:     "p1",
		Status: domain.ProductStatusDraft,
	}, nil)

	bad := "retired"
	_, err := svc.UpdateProduct(context.Background(), "p1", UpdateProductInput{Status: &bad})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
