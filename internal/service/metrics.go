package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Mortiou/m-book/internal/domain"
)

var (
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_search_duration_seconds",
		Help:    "Catalog search latency including the catalog load",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"endpoint", "type", "sort"})

	searchResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_search_results",
		Help:    "Number of books matching a catalog search before paging",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
	}, []string{"endpoint"})
)

var knownSorts = map[string]bool{
	domain.SortRelevance:  true,
	domain.SortPopularity: true,
	domain.SortRating:     true,
	domain.SortNewest:     true,
	domain.SortOldest:     true,
	domain.SortPriceLow:   true,
	domain.SortPriceHigh:  true,
	domain.SortPagesShort: true,
	domain.SortPagesLong:  true,
	domain.SortTitleAZ:    true,
	domain.SortTitleZA:    true,
	domain.SortAuthorAZ:   true,
	domain.SortBestseller: true,
}

// sortLabel bounds the sort label to known values.
func sortLabel(sortBy string) string {
	if knownSorts[sortBy] {
		return sortBy
	}
	return "default"
}
