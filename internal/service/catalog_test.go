package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/internal/engine"
	"github.com/Mortiou/m-book/internal/repository"
	"github.com/Mortiou/m-book/internal/repository/memory"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
	"github.com/Mortiou/m-book/pkg/pagination"
)

type fakePublisher struct {
	created []int64
	deleted []int64
	err     error
}

func (f *fakePublisher) PublishBookCreated(_ context.Context, book *domain.Book) error {
	f.created = append(f.created, book.ID)
	return f.err
}

func (f *fakePublisher) PublishBookDeleted(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context) { f.calls++ }

// failingStore fails every operation with err.
type failingStore struct {
	repository.CatalogRepository
	err error
}

func (f failingStore) List(context.Context) ([]domain.Book, error)      { return nil, f.err }
func (f failingStore) Add(context.Context, *domain.Book) error          { return f.err }
func (f failingStore) Delete(context.Context, int64) error              { return f.err }
func (f failingStore) Get(context.Context, int64) (*domain.Book, error) { return nil, f.err }
func (f failingStore) Ping(context.Context) error                       { return f.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, opts ...Option) (*CatalogService, *memory.Store) {
	t.Helper()
	store := memory.NewSeeded()
	return NewCatalogService(store, engine.New(), testLogger(), opts...), store
}

func bookIDs(books []domain.Book) []int64 {
	ids := make([]int64, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	return ids
}

func TestSearch_Relevance(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Search(context.Background(), domain.Query{
		Text:   "Business",
		Type:   domain.SearchAll,
		SortBy: domain.SortRelevance,
		Page:   1,
		Limit:  12,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 2}, bookIDs(res.Books))
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.False(t, res.HasMore)
	assert.NotEmpty(t, res.Facets.Categories)
}

func TestSearch_EmptyQueryReturnsCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Search(context.Background(), domain.Query{Page: 1, Limit: 12, SortBy: domain.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Len(t, res.Books, 5)
	assert.Empty(t, res.Suggestions)
}

func TestSearch_StoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewCatalogService(failingStore{err: boom}, engine.New(), testLogger())

	_, err := svc.Search(context.Background(), domain.Query{Page: 1, Limit: 12})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLegacySearch(t *testing.T) {
	tests := []struct {
		name  string
		query domain.Query
		want  []int64
	}{
		{
			name:  "bestseller alias",
			query: domain.Query{SortBy: domain.SortBestseller, Page: 1, Limit: 12},
			want:  []int64{3, 1, 5, 2, 4},
		},
		{
			name: "category filter is case-insensitive",
			query: domain.Query{
				Filters: domain.Filters{Category: "business"},
				SortBy:  domain.SortPriceLow,
				Page:    1,
				Limit:   12,
			},
			want: []int64{2, 5},
		},
		{
			name: "price window",
			query: domain.Query{
				Filters: domain.Filters{MinPrice: ptr(20.0), MaxPrice: ptr(35.0)},
				SortBy:  domain.SortPriceHigh,
				Page:    1,
				Limit:   12,
			},
			want: []int64{5, 1, 2},
		},
		{
			name: "minimum rating",
			query: domain.Query{
				Filters: domain.Filters{MinRating: ptr(4.8)},
				SortBy:  domain.SortRating,
				Page:    1,
				Limit:   12,
			},
			want: []int64{3, 1},
		},
		{
			name: "format",
			query: domain.Query{
				Filters: domain.Filters{Format: "mobi"},
				SortBy:  domain.SortPriceLow,
				Page:    1,
				Limit:   12,
			},
			want: []int64{4, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)

			res, err := svc.LegacySearch(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, bookIDs(res.Books))
			assert.Equal(t, len(tt.want), res.Total)
			assert.Equal(t, 1, res.Page)
		})
	}
}

func TestLegacySearch_Paging(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.LegacySearch(context.Background(), domain.Query{SortBy: domain.SortBestseller, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 2}, bookIDs(res.Books))
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasMore)
}

func TestSuggest(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Suggest(context.Background(), "  WEB ")
	require.NoError(t, err)
	assert.Equal(t, []string{"The Art of Web Development", "web development"}, got)

	got, err = svc.Suggest(context.Background(), "m")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFacets(t *testing.T) {
	svc, _ := newTestService(t)

	f, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Programming", "Business", "Technology", "Writing"}, f.Categories)
	assert.NotEmpty(t, f.Years)
}

func TestGetBook(t *testing.T) {
	svc, _ := newTestService(t)

	b, err := svc.GetBook(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "AI and Machine Learning", b.Title)

	_, err = svc.GetBook(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetBook(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestListBooks(t *testing.T) {
	svc, _ := newTestService(t)

	books, total, err := svc.ListBooks(context.Background(), pagination.New(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []int64{3, 4}, bookIDs(books))

	books, total, err = svc.ListBooks(context.Background(), pagination.New(9, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, books)
}

func TestAddBook(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTestService(t, WithPublisher(pub))

	book := &domain.Book{Title: "  Go in Practice ", Author: "Matt Butcher", Price: 30, Rating: 4.2}
	require.NoError(t, svc.AddBook(context.Background(), book))

	assert.Equal(t, int64(6), book.ID)
	assert.Equal(t, "Go in Practice", book.Title)
	assert.NotNil(t, book.Tags)
	assert.Equal(t, 6, store.Len())
	assert.Equal(t, []int64{6}, pub.created)
}

func TestAddBook_Invalid(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTestService(t, WithPublisher(pub))

	tests := []struct {
		name string
		book domain.Book
	}{
		{"blank title", domain.Book{Title: "   "}},
		{"negative price", domain.Book{Title: "x", Price: -1}},
		{"rating above five", domain.Book{Title: "x", Rating: 5.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddBook(context.Background(), &tt.book)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
	assert.Equal(t, 5, store.Len())
	assert.Empty(t, pub.created)
}

func TestAddBook_Duplicate(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, WithPublisher(pub))

	err := svc.AddBook(context.Background(), &domain.Book{ID: 1, Title: "Again"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.Empty(t, pub.created)
}

func TestAddBook_PublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, store := newTestService(t, WithPublisher(pub))

	require.NoError(t, svc.AddBook(context.Background(), &domain.Book{Title: "Kept"}))
	assert.Equal(t, 6, store.Len())
}

func TestDeleteBook(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTestService(t, WithPublisher(pub))

	require.NoError(t, svc.DeleteBook(context.Background(), 2))
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, []int64{2}, pub.deleted)

	err := svc.DeleteBook(context.Background(), 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, []int64{2}, pub.deleted)
}

func TestApplyCreated_Idempotent(t *testing.T) {
	inv := &fakeInvalidator{}
	svc, store := newTestService(t, WithInvalidator(inv))

	book := &domain.Book{ID: 42, Title: "Remote"}
	require.NoError(t, svc.ApplyCreated(context.Background(), book))
	require.NoError(t, svc.ApplyCreated(context.Background(), &domain.Book{ID: 42, Title: "Remote"}))

	assert.Equal(t, 6, store.Len())
	assert.Equal(t, 2, inv.calls)

	err := svc.ApplyCreated(context.Background(), &domain.Book{Title: "no id"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestApplyDeleted_Idempotent(t *testing.T) {
	inv := &fakeInvalidator{}
	svc, store := newTestService(t, WithInvalidator(inv))

	require.NoError(t, svc.ApplyDeleted(context.Background(), 4))
	require.NoError(t, svc.ApplyDeleted(context.Background(), 4))
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, 2, inv.calls)
}

func TestApply_ReadOnlyStoreIsSkipped(t *testing.T) {
	svc := NewCatalogService(failingStore{err: apperrors.ReadOnly("calibre library")}, engine.New(), testLogger())

	assert.NoError(t, svc.ApplyCreated(context.Background(), &domain.Book{ID: 9, Title: "x"}))
	assert.NoError(t, svc.ApplyDeleted(context.Background(), 9))
}

func TestApply_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	inv := &fakeInvalidator{}
	svc := NewCatalogService(failingStore{err: boom}, engine.New(), testLogger(), WithInvalidator(inv))

	assert.ErrorIs(t, svc.ApplyCreated(context.Background(), &domain.Book{ID: 9, Title: "x"}), boom)
	assert.ErrorIs(t, svc.ApplyDeleted(context.Background(), 9), boom)
	assert.Zero(t, inv.calls)
}

func TestSitemap(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	set, err := svc.Sitemap(context.Background(), "https://m-book.example/")
	require.NoError(t, err)
	require.Len(t, set.URLs, len(staticPages)+5)

	home := set.URLs[0]
	assert.Equal(t, "https://m-book.example", home.Loc)
	assert.Equal(t, "1.0", home.Priority)
	assert.Equal(t, "weekly", home.ChangeFreq)
	assert.Equal(t, "2026-03-01T12:00:00Z", home.LastMod)
	assert.Equal(t, "https://m-book.example/search", set.URLs[1].Loc)
	assert.Equal(t, "0.8", set.URLs[1].Priority)

	first := set.URLs[len(staticPages)]
	assert.Equal(t, "https://m-book.example/book/1-the-art-of-web-development", first.Loc)
	assert.Equal(t, "monthly", first.ChangeFreq)
	assert.Equal(t, "0.9", first.Priority)

	body, err := set.Encode()
	require.NoError(t, err)
	doc := string(body)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, doc, "<loc>https://m-book.example/book/3-ai-and-machine-learning</loc>")
}

func TestSortLabel(t *testing.T) {
	assert.Equal(t, "price-low", sortLabel("price-low"))
	assert.Equal(t, "default", sortLabel("drop table"))
	assert.Equal(t, "default", sortLabel(""))
}

func TestPing(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.Ping(context.Background()))

	down := NewCatalogService(failingStore{err: apperrors.Unavailable("down")}, engine.New(), testLogger())
	assert.ErrorIs(t, down.Ping(context.Background()), apperrors.ErrServiceUnavail)
}

func ptr[T any](v T) *T { return &v }
