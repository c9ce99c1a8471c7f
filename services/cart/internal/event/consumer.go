package event

import (
	"context"
	"log/slog"
	"time"

	pkgkafka "github.com/ozanyurtsever/shopcore/pkg/kafka"
)

// TopicCartClearFailed carries checkout attempts whose cart clear step
// failed after the order was already persisted.
var TopicCartClearFailed = pkgkafka.Topic("checkout", "cart_clear_failed")

// cartClearFailedData mirrors the payload published by the checkout
// service. Only the fields this consumer needs are decoded.
type cartClearFailedData struct {
	UserID     string `json:"user_id"`
	OrderID    string `json:"order_id"`
	CheckoutID string `json:"checkout_id"`
}

// CartClearer removes a user's cart.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// ReconciliationConsumer drains cart_clear_failed events and retries the
// clear so a cart left behind by a failed checkout step eventually goes
// away. Processing is idempotent per event.
type ReconciliationConsumer struct {
	consumer *pkgkafka.Consumer
	logger   *slog.Logger
}

func NewReconciliationConsumer(brokers []string, clearer CartClearer, logger *slog.Logger) *ReconciliationConsumer {
	handler := clearHandler(clearer, logger)

	store := pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	idempotent := pkgkafka.IdempotentHandler(store, handler, logger)

	consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: brokers,
		GroupID: "cart-reconciliation",
		Topic:   TopicCartClearFailed,
	}, idempotent, logger)

	return &ReconciliationConsumer{consumer: consumer, logger: logger}
}

func clearHandler(clearer CartClearer, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var data cartClearFailedData
		if err := event.UnmarshalData(&data); err != nil {
			return err
		}

		if err := clearer.Clear(ctx, data.UserID); err != nil {
			return err
		}

		logger.InfoContext(ctx, "reconciled cart after failed clear",
			slog.String("user_id", data.UserID),
			slog.String("order_id", data.OrderID),
			slog.String("checkout_id", data.CheckoutID),
		)
		return nil
	}
}

// Start blocks consuming events until the context is canceled.
func (c *ReconciliationConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close stops the underlying consumer.
func (c *ReconciliationConsumer) Close() error {
	return c.consumer.Close()
}
