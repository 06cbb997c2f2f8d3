package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mortiou/m-book/internal/domain"
	pkgkafka "github.com/Mortiou/m-book/pkg/kafka"
)

// BookApplier applies replicated book changes to the local catalog.
type BookApplier interface {
	ApplyCreated(ctx context.Context, book *domain.Book) error
	ApplyDeleted(ctx context.Context, id int64) error
}

// Consumer keeps the local catalog in step with book events from other
// instances.
type Consumer struct {
	catalog BookApplier
	logger  *slog.Logger
}

// NewConsumer creates a book event consumer.
func NewConsumer(catalog BookApplier, logger *slog.Logger) *Consumer {
	return &Consumer{
		catalog: catalog,
		logger:  logger,
	}
}

// Topics lists the topics Handle understands.
func Topics() []string {
	return []string{TopicBookCreated, TopicBookDeleted}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicBookCreated:
		return c.handleBookCreated(ctx, event)
	case TopicBookDeleted:
		return c.handleBookDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleBookCreated(ctx context.Context, event *pkgkafka.Event) error {
	var data BookCreatedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal book.created data: %w", err)
	}

	if err := c.catalog.ApplyCreated(ctx, &data.Book); err != nil {
		return fmt.Errorf("apply book.created: %w", err)
	}

	c.logger.InfoContext(ctx, "applied book.created event",
		slog.Int64("book_id", data.Book.ID),
		slog.String("source", event.Source),
	)
	return nil
}

func (c *Consumer) handleBookDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data BookDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal book.deleted data: %w", err)
	}

	if err := c.catalog.ApplyDeleted(ctx, data.ID); err != nil {
		return fmt.Errorf("apply book.deleted: %w", err)
	}

	c.logger.InfoContext(ctx, "applied book.deleted event",
		slog.Int64("book_id", data.ID),
		slog.String("source", event.Source),
	)
	return nil
}
