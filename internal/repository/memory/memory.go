// Package memory is the in-process catalog store.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/Mortiou/m-book/internal/domain"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
)

// Store keeps the catalog in a map guarded by a sync.RWMutex.
type Store struct {
	mu     sync.RWMutex
	books  map[int64]domain.Book
	nextID int64
}

// New creates a store holding a copy of books.
func New(books ...domain.Book) *Store {
	s := &Store{books: make(map[int64]domain.Book, len(books)), nextID: 1}
	for _, b := range books {
		b.Normalize()
		s.books[b.ID] = b
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
	}
	return s
}

// NewSeeded creates a store holding the reference catalog.
func NewSeeded() *Store {
	return New(domain.ReferenceCatalog()...)
}

// List returns a copy of every book ordered by id.
func (s *Store) List(_ context.Context) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, clone(b))
	}
	slices.SortFunc(out, func(a, b domain.Book) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Get returns a copy of the book with the given id.
func (s *Store) Get(_ context.Context, id int64) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}
	b = clone(b)
	return &b, nil
}

// Add stores book, assigning the next id when book.ID is zero.
func (s *Store) Add(_ context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == 0 {
		book.ID = s.nextID
	}
	if _, ok := s.books[book.ID]; ok {
		return apperrors.AlreadyExists("book", "id", strconv.FormatInt(book.ID, 10))
	}
	book.Normalize()
	s.books[book.ID] = clone(*book)
	if book.ID >= s.nextID {
		s.nextID = book.ID + 1
	}
	return nil
}

// Delete removes the book with the given id.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}
	delete(s.books, id)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Len returns the number of books held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// clone detaches the slices so callers cannot mutate stored records.
func clone(b domain.Book) domain.Book {
	b.Tags = slices.Clone(b.Tags)
	b.Formats = slices.Clone(b.Formats)
	return b
}
