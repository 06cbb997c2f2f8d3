// Package cache decorates a catalog store with a Redis snapshot of the full
// book list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/internal/repository"
	"github.com/Mortiou/m-book/pkg/database"
)

// SnapshotKey holds the JSON-encoded catalog.
const SnapshotKey = "mbook:catalog:snapshot"

// DefaultTTL bounds how stale a snapshot written by another instance can get.
const DefaultTTL = 5 * time.Minute

var snapshotRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_cache_requests_total",
	Help: "Catalog snapshot lookups by result (hit, miss, error)",
}, []string{"result"})

// Store serves List from Redis and falls through to the wrapped store on a
// miss. Redis failures are logged and never returned.
type Store struct {
	repository.CatalogRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps inner with a snapshot cache. A non-positive ttl uses DefaultTTL.
func New(inner repository.CatalogRepository, client redis.Cmdable, ttl time.Duration, l *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{CatalogRepository: inner, client: client, ttl: ttl, logger: l}
}

// List returns the cached snapshot, loading and caching it on a miss.
func (s *Store) List(ctx context.Context) ([]domain.Book, error) {
	if books, ok := s.cached(ctx); ok {
		return books, nil
	}

	books, err := s.CatalogRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, books)
	return books, nil
}

// Add writes through and drops the snapshot.
func (s *Store) Add(ctx context.Context, book *domain.Book) error {
	if err := s.CatalogRepository.Add(ctx, book); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Delete writes through and drops the snapshot.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.CatalogRepository.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate drops the snapshot so the next List reloads it.
func (s *Store) Invalidate(ctx context.Context) {
	var err error
	ctx, end := database.TraceStore(ctx, database.SystemRedis, "InvalidateSnapshot", "DEL "+SnapshotKey)
	defer func() { end(err) }()

	if err = s.client.Del(ctx, SnapshotKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog snapshot", slog.String("error", err.Error()))
	}
}

func (s *Store) cached(ctx context.Context) (books []domain.Book, ok bool) {
	var err error
	ctx, end := database.TraceStore(ctx, database.SystemRedis, "GetSnapshot", "GET "+SnapshotKey)
	defer func() { end(err) }()

	data, err := s.client.Get(ctx, SnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		err = nil
		snapshotRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		snapshotRequests.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "catalog snapshot read failed, using store", slog.String("error", err.Error()))
		return nil, false
	}

	if err = json.Unmarshal(data, &books); err != nil {
		snapshotRequests.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "discarding corrupt catalog snapshot", slog.String("error", err.Error()))
		return nil, false
	}
	for i := range books {
		books[i].Normalize()
	}
	if books == nil {
		books = []domain.Book{}
	}
	snapshotRequests.WithLabelValues("hit").Inc()
	return books, true
}

func (s *Store) store(ctx context.Context, books []domain.Book) {
	var err error
	ctx, end := database.TraceStore(ctx, database.SystemRedis, "SetSnapshot", "SET "+SnapshotKey)
	defer func() { end(err) }()

	data, err := json.Marshal(books)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode catalog snapshot", slog.String("error", err.Error()))
		return
	}
	if err = s.client.Set(ctx, SnapshotKey, data, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to write catalog snapshot", slog.String("error", err.Error()))
	}
}
