package event

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/ozanyurtsever/shopcore/pkg/kafka"
	"github.com/ozanyurtsever/shopcore/pkg/logger"
	"github.com/ozanyurtsever/shopcore/services/order/internal/domain"
)

var TopicOrderCreated = pkgkafka.Topic("order", "created")

// OrderCreatedData is the payload of an order created event.
type OrderCreatedData struct {
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	CheckoutID string          `json:"checkout_id"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	ItemCount  int             `json:"item_count"`
}

// Producer publishes order events to Kafka.
type Producer struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

func NewProducer(producer *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: logger}
}

func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	evt, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, "order", "order-service", OrderCreatedData{
		OrderID:    order.ID,
		UserID:     order.UserID,
		CheckoutID: order.CheckoutID,
		Total:      order.Total,
		Currency:   order.Currency,
		ItemCount:  len(order.Items),
	})
	if err != nil {
		return err
	}
	evt = evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	return p.producer.Publish(ctx, TopicOrderCreated, evt)
}
