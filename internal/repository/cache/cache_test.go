package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/internal/repository"
	"github.com/Mortiou/m-book/internal/repository/memory"
)

var _ repository.CatalogRepository = (*Store)(nil)

// countingStore counts List calls on the wrapped store.
type countingStore struct {
	repository.CatalogRepository
	lists   int
	listErr error
}

func (c *countingStore) List(ctx context.Context) ([]domain.Book, error) {
	c.lists++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.CatalogRepository.List(ctx)
}

func setupCache(t *testing.T) (*Store, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingStore{CatalogRepository: memory.NewSeeded()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(inner, client, time.Minute, logger), inner, mr
}

func TestStore_ListCachesSnapshot(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCache(t)

	first, err := s.List(ctx)
	require.NoError(t, err)
	second, err := s.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.lists)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.ReferenceCatalog(), second)
	assert.True(t, mr.Exists(SnapshotKey))
	assert.Equal(t, time.Minute, mr.TTL(SnapshotKey))
}

func TestStore_SnapshotExpires(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCache(t)

	_, err := s.List(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lists)
}

func TestStore_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCache(t)

	_, err := s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Add(ctx, &domain.Book{Title: "Fresh"}))
	assert.False(t, mr.Exists(SnapshotKey))

	books, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 6)
	assert.Equal(t, 2, inner.lists)

	require.NoError(t, s.Delete(ctx, 6))
	assert.False(t, mr.Exists(SnapshotKey))
}

func TestStore_FailedWriteKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	s, _, mr := setupCache(t)

	_, err := s.List(ctx)
	require.NoError(t, err)

	assert.Error(t, s.Delete(ctx, 99))
	assert.True(t, mr.Exists(SnapshotKey))
}

func TestStore_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCache(t)
	mr.Close()

	books, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 5)

	require.NoError(t, s.Add(ctx, &domain.Book{Title: "Still works"}))
	assert.Equal(t, 1, inner.lists)
}

func TestStore_CorruptSnapshotIsIgnored(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCache(t)
	require.NoError(t, mr.Set(SnapshotKey, "{not json"))

	books, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 5)
	assert.Equal(t, 1, inner.lists)
}

func TestStore_InnerErrorIsReturned(t *testing.T) {
	s, inner, _ := setupCache(t)
	inner.listErr = errors.New("database down")

	_, err := s.List(context.Background())
	assert.EqualError(t, err, "database down")
}

func TestStore_GetDelegates(t *testing.T) {
	s, _, _ := setupCache(t)

	b, err := s.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Creative Writing Workshop", b.Title)
}
