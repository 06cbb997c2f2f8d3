package repository

import (
	"context"

	"github.com/Mortiou/m-book/internal/domain"
)

// CatalogRepository is the catalog store behind the search service.
type CatalogRepository interface {
	// List returns the full catalog snapshot ordered by id ascending.
	List(ctx context.Context) ([]domain.Book, error)

	// Get retrieves a book by id.
	Get(ctx context.Context, id int64) (*domain.Book, error)

	// Add inserts a book. A zero id is replaced by the next free id.
	Add(ctx context.Context, book *domain.Book) error

	// Delete removes a book by id.
	Delete(ctx context.Context, id int64) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
