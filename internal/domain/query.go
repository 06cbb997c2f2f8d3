package domain

import "strings"

// SearchType selects the field(s) a query text is matched against.
type SearchType string

const (
	SearchAll     SearchType = "all"
	SearchTitle   SearchType = "title"
	SearchAuthor  SearchType = "author"
	SearchContent SearchType = "content"
	SearchISBN    SearchType = "isbn"
)

// ParseSearchType maps unknown or empty input to SearchAll.
func ParseSearchType(s string) SearchType {
	switch t := SearchType(strings.ToLower(strings.TrimSpace(s))); t {
	case SearchTitle, SearchAuthor, SearchContent, SearchISBN:
		return t
	default:
		return SearchAll
	}
}

// Sort options. Anything else selects the default ordering: title matches
// first, then by review count.
const (
	SortRelevance  = "relevance"
	SortPopularity = "popularity"
	SortRating     = "rating"
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortPriceLow   = "price-low"
	SortPriceHigh  = "price-high"
	SortPagesShort = "pages-short"
	SortPagesLong  = "pages-long"
	SortTitleAZ    = "title-az"
	SortTitleZA    = "title-za"
	SortAuthorAZ   = "author-az"

	// SortBestseller is the basic search's name for popularity.
	SortBestseller = "bestseller"
)

// Page-count buckets.
const (
	PagesShort  = "short"
	PagesMedium = "medium"
	PagesLong   = "long"

	ShortMaxPages  = 200
	MediumMaxPages = 400
)

// Filters are ANDed; zero values are vacuously true.
type Filters struct {
	Language  string
	Publisher string
	Series    string
	// Audiobook restricts to books with an audiobook only when true.
	Audiobook bool
	YearFrom  *int
	YearTo    *int
	PageCount string

	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	// Format matches any of the book's formats, case-insensitively.
	Format string
}

// Query describes one search call.
type Query struct {
	Text    string
	Type    SearchType
	Filters Filters
	SortBy  string
	Page    int
	Limit   int
}

// Facets summarize the distinct values present in the whole catalog.
type Facets struct {
	Languages  []string `json:"languages"`
	Publishers []string `json:"publishers"`
	Series     []string `json:"series"`
	Categories []string `json:"categories"`
	Years      []int    `json:"years"`
}

// SearchResult is one page of matches plus catalog-wide summaries.
type SearchResult struct {
	Books       []Book   `json:"books"`
	Total       int      `json:"total"`
	Page        int      `json:"page"`
	TotalPages  int      `json:"totalPages"`
	HasMore     bool     `json:"hasMore"`
	Suggestions []string `json:"suggestions"`
	Facets      Facets   `json:"facets"`
	// SearchTime is the measured engine time in milliseconds.
	SearchTime float64 `json:"searchTime"`
}

// BasicResult is the reduced page returned by the basic search endpoint.
type BasicResult struct {
	Books      []Book `json:"books"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	HasMore    bool   `json:"hasMore"`
}
