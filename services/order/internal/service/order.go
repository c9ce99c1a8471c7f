package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/pagination"
	"github.com/ozanyurtsever/shopcore/services/order/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/order/internal/repository"
)

// EventPublisher publishes order lifecycle events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}

// OrderService implements order creation and retrieval.
type OrderService struct {
	orders    repository.OrderRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewOrderService(orders repository.OrderRepository, publisher EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrderItemInput is one line of a new order.
type CreateOrderItemInput struct {
	ProductID       string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// CreateOrderInput carries everything needed to persist an order.
type CreateOrderInput struct {
	UserID     string
	CheckoutID string
	Total      decimal.Decimal
	Currency   string
	Items      []CreateOrderItemInput
}

// Create persists a new order. The declared total must equal the sum of
// the item lines. A repeated checkout ID returns the order the earlier
// attempt created instead of a duplicate.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.Unprocessable("order must contain at least one item")
	}

	order := &domain.Order{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		Total:      input.Total,
		Currency:   input.Currency,
		CheckoutID: input.CheckoutID,
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid quantity for product %s", item.ProductID))
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:              uuid.NewString(),
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		})
	}

	if computed := order.ComputedTotal(); !computed.Equal(input.Total) {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"declared total %s does not match item sum %s", input.Total, computed,
		))
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			existing, getErr := s.orders.GetByCheckoutID(ctx, input.CheckoutID)
			if getErr != nil {
				return nil, fmt.Errorf("load existing order for checkout %s: %w", input.CheckoutID, getErr)
			}
			s.logger.InfoContext(ctx, "checkout already persisted, returning existing order",
				slog.String("checkout_id", input.CheckoutID),
				slog.String("order_id", existing.ID),
			)
			return existing, nil
		}
		return nil, err
	}

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.String("checkout_id", order.CheckoutID),
		slog.String("total", order.Total.String()),
	)
	return order, nil
}

// Get returns the order if it belongs to the user.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		// Hide other users' orders rather than confirming they exist.
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

// GetByCheckoutID returns the order a checkout attempt created, if any.
func (s *OrderService) GetByCheckoutID(ctx context.Context, checkoutID string) (*domain.Order, error) {
	return s.orders.GetByCheckoutID(ctx, checkoutID)
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.Order], error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Result[domain.Order]{}, err
	}
	return pagination.NewResult(orders, total, params), nil
}
