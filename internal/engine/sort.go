package engine

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"

	"github.com/Mortiou/m-book/internal/domain"
)

type candidate struct {
	book  *domain.Book
	score float64
	// titleHit marks a title match for the default ordering.
	titleHit bool
}

// order sorts matches for sortBy. Every ordering falls back to id ascending
// so equal keys never reorder between calls.
func (e *Engine) order(matches []candidate, text, sortBy string) {
	if sortBy == domain.SortBestseller {
		sortBy = domain.SortPopularity
	}

	var primary func(a, b *domain.Book) int
	switch sortBy {
	case domain.SortRelevance:
		for i := range matches {
			matches[i].score = e.Score(matches[i].book, text)
		}
		slices.SortFunc(matches, func(a, b candidate) int {
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
			return cmp.Compare(a.book.ID, b.book.ID)
		})
		return
	case domain.SortPopularity:
		primary = func(a, b *domain.Book) int { return cmp.Compare(b.ReviewCount, a.ReviewCount) }
	case domain.SortRating:
		primary = func(a, b *domain.Book) int { return cmp.Compare(b.Rating, a.Rating) }
	case domain.SortNewest:
		primary = func(a, b *domain.Book) int { return b.PublishDate.Compare(a.PublishDate.Time) }
	case domain.SortOldest:
		primary = func(a, b *domain.Book) int { return a.PublishDate.Compare(b.PublishDate.Time) }
	case domain.SortPriceLow:
		primary = func(a, b *domain.Book) int { return cmp.Compare(a.Price, b.Price) }
	case domain.SortPriceHigh:
		primary = func(a, b *domain.Book) int { return cmp.Compare(b.Price, a.Price) }
	case domain.SortPagesShort:
		primary = func(a, b *domain.Book) int { return cmp.Compare(a.Pages, b.Pages) }
	case domain.SortPagesLong:
		primary = func(a, b *domain.Book) int { return cmp.Compare(b.Pages, a.Pages) }
	case domain.SortTitleAZ, domain.SortTitleZA, domain.SortAuthorAZ:
		primary = e.textOrder(sortBy)
	default:
		for i := range matches {
			matches[i].titleHit = strings.Contains(strings.ToLower(matches[i].book.Title), text)
		}
		slices.SortFunc(matches, func(a, b candidate) int {
			if a.titleHit != b.titleHit {
				if a.titleHit {
					return -1
				}
				return 1
			}
			if c := cmp.Compare(b.book.ReviewCount, a.book.ReviewCount); c != 0 {
				return c
			}
			return cmp.Compare(a.book.ID, b.book.ID)
		})
		return
	}

	slices.SortFunc(matches, func(a, b candidate) int {
		if c := primary(a.book, b.book); c != 0 {
			return c
		}
		return cmp.Compare(a.book.ID, b.book.ID)
	})
}

// textOrder builds a locale-aware comparator. A Collator keeps scratch
// buffers, so each sort gets its own.
func (e *Engine) textOrder(sortBy string) func(a, b *domain.Book) int {
	c := collate.New(e.lang)
	switch sortBy {
	case domain.SortTitleZA:
		return func(a, b *domain.Book) int { return c.CompareString(b.Title, a.Title) }
	case domain.SortAuthorAZ:
		return func(a, b *domain.Book) int { return c.CompareString(a.Author, b.Author) }
	default:
		return func(a, b *domain.Book) int { return c.CompareString(a.Title, b.Title) }
	}
}
