// Package engine implements catalog search as a pure function over a
// catalog snapshot. It never mutates its input and holds no shared state.
package engine

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/pkg/pagination"
)

const (
	maxSuggestions   = 5
	minSuggestLength = 2
)

// Weights is the relevance scoring policy.
type Weights struct {
	TitleContains float64
	TitlePrefix   float64
	Author        float64
	Tag           float64
	Description   float64
	// PopularityDivisor scales rating*reviewCount into the score.
	PopularityDivisor float64
}

// DefaultWeights are the production relevance weights.
var DefaultWeights = Weights{
	TitleContains:     10,
	TitlePrefix:       5,
	Author:            8,
	Tag:               6,
	Description:       4,
	PopularityDivisor: 1000,
}

// Engine runs searches. It is safe for concurrent use.
type Engine struct {
	weights Weights
	lang    language.Tag
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the relevance weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithCollation sets the language used for title and author ordering.
func WithCollation(tag language.Tag) Option {
	return func(e *Engine) { e.lang = tag }
}

// New creates an engine with DefaultWeights and English collation.
func New(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights, lang: language.English}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search filters, orders and pages catalog for q, and attaches facets and
// suggestions computed over the whole catalog. Malformed paging input is
// normalized, never rejected.
func (e *Engine) Search(catalog []domain.Book, q domain.Query) domain.SearchResult {
	start := time.Now()
	text := strings.ToLower(q.Text)

	matched := make([]candidate, 0, len(catalog))
	for i := range catalog {
		b := &catalog[i]
		if !matchesText(b, text, q.Type) || !matchesFilters(b, &q.Filters) {
			continue
		}
		matched = append(matched, candidate{book: b})
	}

	e.order(matched, text, q.SortBy)

	p := pagination.New(q.Page, q.Limit)
	total := len(matched)
	from, to := p.Bounds(total)

	books := make([]domain.Book, 0, to-from)
	for _, c := range matched[from:to] {
		books = append(books, *c.book)
	}

	return domain.SearchResult{
		Books:       books,
		Total:       total,
		Page:        p.Page,
		TotalPages:  pagination.TotalPages(total, p.PerPage),
		HasMore:     p.HasMore(total),
		Suggestions: Suggestions(catalog, q.Text),
		Facets:      ComputeFacets(catalog),
		SearchTime:  float64(time.Since(start).Microseconds()) / 1000,
	}
}

// Score is the relevance of b for the lower-cased text.
func (e *Engine) Score(b *domain.Book, text string) float64 {
	w := e.weights
	var score float64

	title := strings.ToLower(b.Title)
	if strings.Contains(title, text) {
		score += w.TitleContains
	}
	if strings.HasPrefix(title, text) {
		score += w.TitlePrefix
	}
	if strings.Contains(strings.ToLower(b.Author), text) {
		score += w.Author
	}
	if anyTagContains(b.Tags, text) {
		score += w.Tag
	}
	if strings.Contains(strings.ToLower(b.Description), text) {
		score += w.Description
	}
	if w.PopularityDivisor > 0 {
		score += b.Rating * float64(b.ReviewCount) / w.PopularityDivisor
	}
	return score
}

func matchesText(b *domain.Book, text string, t domain.SearchType) bool {
	if text == "" {
		return true
	}
	switch t {
	case domain.SearchTitle:
		return containsFold(b.Title, text)
	case domain.SearchAuthor:
		return containsFold(b.Author, text)
	case domain.SearchContent:
		return containsFold(b.FullText, text)
	case domain.SearchISBN:
		return containsFold(b.ISBN, text)
	default:
		return containsFold(b.Title, text) ||
			containsFold(b.Author, text) ||
			containsFold(b.Description, text) ||
			anyTagContains(b.Tags, text)
	}
}

func matchesFilters(b *domain.Book, f *domain.Filters) bool {
	if f.Language != "" && b.Language != f.Language {
		return false
	}
	if f.Publisher != "" && b.Publisher != f.Publisher {
		return false
	}
	if f.Series != "" && b.Series != f.Series {
		return false
	}
	if f.Audiobook && !b.HasAudiobook {
		return false
	}
	if f.YearFrom != nil && b.Year() < *f.YearFrom {
		return false
	}
	if f.YearTo != nil && b.Year() > *f.YearTo {
		return false
	}
	if !inPageBucket(b.Pages, f.PageCount) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, "all") && !strings.EqualFold(b.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && b.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && b.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && b.Rating < *f.MinRating {
		return false
	}
	if f.Format != "" && !slices.ContainsFunc(b.Formats, func(x string) bool { return strings.EqualFold(x, f.Format) }) {
		return false
	}
	return true
}

// inPageBucket reports whether pages falls in bucket. Unknown buckets match
// everything.
func inPageBucket(pages int, bucket string) bool {
	switch bucket {
	case domain.PagesShort:
		return pages <= domain.ShortMaxPages
	case domain.PagesMedium:
		return pages > domain.ShortMaxPages && pages <= domain.MediumMaxPages
	case domain.PagesLong:
		return pages > domain.MediumMaxPages
	default:
		return true
	}
}

// containsFold reports whether s, lower-cased, contains the already
// lower-cased sub.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

func anyTagContains(tags []string, text string) bool {
	for _, tag := range tags {
		if containsFold(tag, text) {
			return true
		}
	}
	return false
}

// Suggestions returns up to five distinct titles, authors or tags from the
// whole catalog that contain text, in catalog order. Text shorter than two
// characters yields none.
func Suggestions(catalog []domain.Book, text string) []string {
	out := make([]string, 0, maxSuggestions)
	if utf8.RuneCountInString(text) < minSuggestLength {
		return out
	}
	text = strings.ToLower(text)

	seen := make(map[string]struct{}, maxSuggestions)
	add := func(s string) bool {
		if !containsFold(s, text) {
			return false
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
		return len(out) == maxSuggestions
	}

	for i := range catalog {
		b := &catalog[i]
		if add(b.Title) || add(b.Author) {
			return out
		}
		for _, tag := range b.Tags {
			if add(tag) {
				return out
			}
		}
	}
	return out
}

// ComputeFacets collects distinct languages, publishers, series and
// categories in first-seen order, and publication years newest first.
// Empty values are skipped.
func ComputeFacets(catalog []domain.Book) domain.Facets {
	f := domain.Facets{
		Languages:  []string{},
		Publishers: []string{},
		Series:     []string{},
		Categories: []string{},
		Years:      []int{},
	}
	seen := map[string]map[string]struct{}{
		"language": {}, "publisher": {}, "series": {}, "category": {},
	}
	years := map[int]struct{}{}

	collect := func(kind, v string, dst *[]string) {
		if v == "" {
			return
		}
		if _, ok := seen[kind][v]; ok {
			return
		}
		seen[kind][v] = struct{}{}
		*dst = append(*dst, v)
	}

	for i := range catalog {
		b := &catalog[i]
		collect("language", b.Language, &f.Languages)
		collect("publisher", b.Publisher, &f.Publishers)
		collect("series", b.Series, &f.Series)
		collect("category", b.Category, &f.Categories)
		if y := b.Year(); y != 0 {
			if _, ok := years[y]; !ok {
				years[y] = struct{}{}
				f.Years = append(f.Years, y)
			}
		}
	}
	slices.SortFunc(f.Years, func(a, b int) int { return cmp.Compare(b, a) })
	return f
}
