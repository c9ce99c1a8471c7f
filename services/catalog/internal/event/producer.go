package event

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/ozanyurtsever/shopcore/pkg/kafka"
	"github.com/ozanyurtsever/shopcore/pkg/logger"
	"github.com/ozanyurtsever/shopcore/services/catalog/internal/domain"
)

var TopicProductCreated = pkgkafka.Topic("product", "created")

// ProductCreatedData is the payload of a product created event.
type ProductCreatedData struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Status    string          `json:"status"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
}

// Producer publishes catalog events to Kafka.
type Producer struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

func NewProducer(producer *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: logger}
}

func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	evt, err := pkgkafka.NewEvent(TopicProductCreated, product.ID, "product", "catalog-service", ProductCreatedData{
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Status:    product.Status,
		Price:     product.Price,
		Currency:  product.Currency,
	})
	if err != nil {
		return err
	}
	evt = evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	return p.producer.Publish(ctx, TopicProductCreated, evt)
}
