package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/internal/engine"
	"github.com/Mortiou/m-book/internal/repository"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
	"github.com/Mortiou/m-book/pkg/pagination"
	"github.com/Mortiou/m-book/pkg/tracing"
)

const tracerName = "github.com/Mortiou/m-book/internal/service"

// EventPublisher announces catalog changes to other instances.
type EventPublisher interface {
	PublishBookCreated(ctx context.Context, book *domain.Book) error
	PublishBookDeleted(ctx context.Context, id int64) error
}

// Invalidator drops cached catalog snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// CatalogService implements search and catalog management on top of a
// CatalogRepository.
type CatalogService struct {
	repo        repository.CatalogRepository
	engine      *engine.Engine
	publisher   EventPublisher
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a CatalogService.
type Option func(*CatalogService)

// WithPublisher publishes book events after successful writes.
func WithPublisher(p EventPublisher) Option {
	return func(s *CatalogService) { s.publisher = p }
}

// WithInvalidator drops cached snapshots after applying remote events.
func WithInvalidator(i Invalidator) Option {
	return func(s *CatalogService) { s.invalidator = i }
}

// NewCatalogService creates a catalog service.
func NewCatalogService(repo repository.CatalogRepository, eng *engine.Engine, logger *slog.Logger, opts ...Option) *CatalogService {
	s := &CatalogService{
		repo:   repo,
		engine: eng,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the advanced search over a fresh catalog snapshot.
func (s *CatalogService) Search(ctx context.Context, q domain.Query) (result *domain.SearchResult, err error) {
	start := time.Now()
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "catalog.search", trace.WithAttributes(
		attribute.String("search.type", string(q.Type)),
		attribute.String("search.sort", sortLabel(q.SortBy)),
		attribute.Int("search.page", q.Page),
	))
	defer func() { tracing.End(span, err) }()

	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: load catalog: %w", err)
	}

	res := s.engine.Search(catalog, q)
	span.SetAttributes(attribute.Int("search.total", res.Total))

	searchDuration.WithLabelValues("advanced", string(q.Type), sortLabel(q.SortBy)).Observe(time.Since(start).Seconds())
	searchResults.WithLabelValues("advanced").Observe(float64(res.Total))

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", q.Text),
		slog.String("type", string(q.Type)),
		slog.String("sort", q.SortBy),
		slog.Int("total", res.Total),
		slog.Float64("search_ms", res.SearchTime),
	)
	return &res, nil
}

// LegacySearch serves the basic search endpoint with the same rules as
// Search. "bestseller" is accepted as an alias of popularity.
func (s *CatalogService) LegacySearch(ctx context.Context, q domain.Query) (result *domain.BasicResult, err error) {
	start := time.Now()
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "catalog.search.basic", trace.WithAttributes(
		attribute.String("search.sort", sortLabel(q.SortBy)),
		attribute.Int("search.page", q.Page),
	))
	defer func() { tracing.End(span, err) }()

	if q.SortBy == domain.SortBestseller {
		q.SortBy = domain.SortPopularity
	}
	q.Type = domain.SearchAll

	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("basic search: load catalog: %w", err)
	}

	res := s.engine.Search(catalog, q)
	searchDuration.WithLabelValues("basic", string(q.Type), sortLabel(q.SortBy)).Observe(time.Since(start).Seconds())
	searchResults.WithLabelValues("basic").Observe(float64(res.Total))

	return &domain.BasicResult{
		Books:      res.Books,
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		HasMore:    res.HasMore,
	}, nil
}

// Suggest returns up to five completions for text drawn from the catalog.
func (s *CatalogService) Suggest(ctx context.Context, text string) ([]string, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest: load catalog: %w", err)
	}
	return engine.Suggestions(catalog, strings.TrimSpace(text)), nil
}

// Facets summarizes the distinct filter values present in the catalog.
func (s *CatalogService) Facets(ctx context.Context) (*domain.Facets, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("facets: load catalog: %w", err)
	}
	f := engine.ComputeFacets(catalog)
	return &f, nil
}

// GetBook retrieves a book by id.
func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("book id must be positive")
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns one page of the catalog in id order and the total count.
func (s *CatalogService) ListBooks(ctx context.Context, p pagination.Params) ([]domain.Book, int, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	from, to := p.Bounds(len(catalog))
	return catalog[from:to], len(catalog), nil
}

// AddBook validates and stores a book, then publishes book.created.
func (s *CatalogService) AddBook(ctx context.Context, book *domain.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	book.Normalize()
	if err := book.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	if err := s.repo.Add(ctx, book); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "book added",
		slog.Int64("book_id", book.ID),
		slog.String("title", book.Title),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishBookCreated(ctx, book); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish book created event",
				slog.Int64("book_id", book.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// DeleteBook removes a book, then publishes book.deleted.
func (s *CatalogService) DeleteBook(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("book id must be positive")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "book deleted", slog.Int64("book_id", id))

	if s.publisher != nil {
		if err := s.publisher.PublishBookDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish book deleted event",
				slog.Int64("book_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ApplyCreated stores a book announced by another instance. A book that is
// already present counts as applied.
func (s *CatalogService) ApplyCreated(ctx context.Context, book *domain.Book) error {
	if book.ID <= 0 {
		return apperrors.InvalidInput("book event without id")
	}
	book.Normalize()
	err := s.repo.Add(ctx, book)
	if err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) && !errors.Is(err, apperrors.ErrReadOnly) {
		return fmt.Errorf("apply book created %d: %w", book.ID, err)
	}
	s.invalidate(ctx)
	return nil
}

// ApplyDeleted removes a book deleted on another instance. A book that is
// already gone counts as applied.
func (s *CatalogService) ApplyDeleted(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrReadOnly) {
		return fmt.Errorf("apply book deleted %s: %w", strconv.FormatInt(id, 10), err)
	}
	s.invalidate(ctx)
	return nil
}

// Ping checks the catalog store.
func (s *CatalogService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}
