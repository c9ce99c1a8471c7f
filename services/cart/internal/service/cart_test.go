package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/services/cart/internal/domain"
)

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func newTestService(repo *mockCartRepository) *CartService {
	return NewCartService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGet_MissingCartIsEmpty(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo)

	repo.On("Get", mock.Anything, "u-1").Return(nil, apperrors.ErrNotFound)

	cart, err := svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, "u-1", cart.UserID)
}

func TestGet_RepositoryError(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo)

	repo.On("Get", mock.Anything, "u-1").Return(nil, errors.New("redis down"))

	_, err := svc.Get(context.Background(), "u-1")
	assert.Error(t, err)
}

func TestAddLine(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo)

	repo.On("Get", mock.Anything, "u-1").Return(nil, apperrors.ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Lines) == 1 && c.Lines[0].Quantity == 3
	})).Return(nil)

	cart, err := svc.AddLine(context.Background(), "u-1", "p-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	repo.AssertExpectations(t)
}

func TestAddLine_RejectsInvalidQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo)

	repo.On("Get", mock.Anything, "u-1").Return(nil, apperrors.ErrNotFound)

	_, err := svc.AddLine(context.Background(), "u-1", "p-1", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestClear(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestService(repo)

	repo.On("Delete", mock.Anything, "u-1").Return(nil)

	require.NoError(t, svc.Clear(context.Background(), "u-1"))
	repo.AssertExpectations(t)
}
