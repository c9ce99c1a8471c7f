package event

import (
	"context"
	"log/slog"

	pkgkafka "github.com/ozanyurtsever/shopcore/pkg/kafka"
	"github.com/ozanyurtsever/shopcore/pkg/logger"
)

var (
	TopicCheckoutCompleted = pkgkafka.Topic("checkout", "completed")
	TopicCartClearFailed   = pkgkafka.Topic("checkout", "cart_clear_failed")
)

// CheckoutCompletedData is the payload of a completed checkout event.
type CheckoutCompletedData struct {
	CheckoutID  string `json:"checkout_id"`
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	CartCleared bool   `json:"cart_cleared"`
}

// CartClearFailedData is the payload consumed by the cart service's
// reconciliation loop.
type CartClearFailedData struct {
	UserID     string `json:"user_id"`
	OrderID    string `json:"order_id"`
	CheckoutID string `json:"checkout_id"`
}

// Producer publishes checkout events to Kafka.
type Producer struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

func NewProducer(producer *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: logger}
}

func (p *Producer) PublishCheckoutCompleted(ctx context.Context, data CheckoutCompletedData) error {
	evt, err := pkgkafka.NewEvent(TopicCheckoutCompleted, data.CheckoutID, "checkout", "checkout-service", data)
	if err != nil {
		return err
	}
	evt = evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))
	return p.producer.Publish(ctx, TopicCheckoutCompleted, evt)
}

func (p *Producer) PublishCartClearFailed(ctx context.Context, data CartClearFailedData) error {
	evt, err := pkgkafka.NewEvent(TopicCartClearFailed, data.CheckoutID, "checkout", "checkout-service", data)
	if err != nil {
		return err
	}
	evt = evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))
	return p.producer.Publish(ctx, TopicCartClearFailed, evt)
}
