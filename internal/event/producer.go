package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Mortiou/m-book/internal/domain"
	pkgkafka "github.com/Mortiou/m-book/pkg/kafka"
	"github.com/Mortiou/m-book/pkg/logger"
)

// Kafka topics for book events.
var (
	TopicBookCreated = pkgkafka.Topic("book", "created")
	TopicBookDeleted = pkgkafka.Topic("book", "deleted")
)

// AggregateTypeBook tags every book event.
const AggregateTypeBook = "book"

// SourceCatalogService identifies events published by this service.
const SourceCatalogService = "catalog-service"

// BookCreatedData is the payload of a book.created event: the full record.
type BookCreatedData struct {
	Book domain.Book `json:"book"`
}

// BookDeletedData is the payload of a book.deleted event.
type BookDeletedData struct {
	ID int64 `json:"id"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes book events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a book event producer.
func NewProducer(kafka publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishBookCreated publishes a book.created event.
func (p *Producer) PublishBookCreated(ctx context.Context, book *domain.Book) error {
	id := strconv.FormatInt(book.ID, 10)
	event, err := pkgkafka.NewEvent(TopicBookCreated, id, AggregateTypeBook, SourceCatalogService, BookCreatedData{Book: *book})
	if err != nil {
		return fmt.Errorf("create book.created event: %w", err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, TopicBookCreated, event); err != nil {
		return fmt.Errorf("publish book.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published book.created event",
		slog.Int64("book_id", book.ID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

// PublishBookDeleted publishes a book.deleted event.
func (p *Producer) PublishBookDeleted(ctx context.Context, id int64) error {
	event, err := pkgkafka.NewEvent(TopicBookDeleted, strconv.FormatInt(id, 10), AggregateTypeBook, SourceCatalogService, BookDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("create book.deleted event: %w", err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, TopicBookDeleted, event); err != nil {
		return fmt.Errorf("publish book.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published book.deleted event",
		slog.Int64("book_id", id),
		slog.String("event_id", event.EventID),
	)
	return nil
}
