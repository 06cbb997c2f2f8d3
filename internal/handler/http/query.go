package http

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/pkg/pagination"
)

// parseAdvancedQuery reads the advanced search parameters. Malformed numbers
// are treated as absent rather than rejected. The text is passed through
// as sent; the engine only lower-cases it.
func parseAdvancedQuery(r *http.Request) domain.Query {
	v := r.URL.Query()
	p := pagination.FromRequestUncapped(r)

	return domain.Query{
		Text: v.Get("q"),
		Type: domain.ParseSearchType(v.Get("type")),
		Filters: domain.Filters{
			Language:  v.Get("language"),
			Publisher: v.Get("publisher"),
			Series:    v.Get("series"),
			Audiobook: v.Get("audiobook") == "true",
			YearFrom:  optionalInt(v, "yearFrom"),
			YearTo:    optionalInt(v, "yearTo"),
			PageCount: strings.ToLower(v.Get("pageCount")),
		},
		SortBy: sortParam(v),
		Page:   p.Page,
		Limit:  p.PerPage,
	}
}

// parseBasicQuery reads the basic search parameters: text plus the category,
// price, format and rating filters.
func parseBasicQuery(r *http.Request) domain.Query {
	v := r.URL.Query()
	p := pagination.FromRequestUncapped(r)

	return domain.Query{
		Text: v.Get("q"),
		Type: domain.SearchAll,
		Filters: domain.Filters{
			Category:  v.Get("category"),
			MinPrice:  optionalFloat(v, "minPrice"),
			MaxPrice:  optionalFloat(v, "maxPrice"),
			MinRating: optionalFloat(v, "rating"),
			Format:    v.Get("format"),
		},
		SortBy: sortParam(v),
		Page:   p.Page,
		Limit:  p.PerPage,
	}
}

func sortParam(v url.Values) string {
	if s := strings.TrimSpace(v.Get("sortBy")); s != "" {
		return s
	}
	return domain.SortRelevance
}

func optionalInt(v url.Values, key string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v.Get(key)))
	if err != nil {
		return nil
	}
	return &n
}

func optionalFloat(v url.Values, key string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Get(key)), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}
