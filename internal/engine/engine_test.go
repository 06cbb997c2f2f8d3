package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mortiou/m-book/internal/domain"
)

func ids(books []domain.Book) []int64 {
	out := make([]int64, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func titles(books []domain.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// syntheticCatalog builds a deterministic catalog with plenty of ties.
func syntheticCatalog(n int, seed uint64) []domain.Book {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	langs := []string{"English", "German", "Turkish"}
	pubs := []string{"Tech Books Inc", "Market Press", "Inkwell House", ""}
	series := []string{"", "", "Mastery", "Workshop"}
	words := []string{"web", "data", "guide", "strategy", "story", "machine"}

	books := make([]domain.Book, 0, n)
	for i := 1; i <= n; i++ {
		w := words[r.IntN(len(words))]
		books = append(books, domain.Book{
			ID:           int64(i),
			Title:        fmt.Sprintf("%s volume %d", w, r.IntN(5)),
			Author:       fmt.Sprintf("Author %d", r.IntN(7)),
			Description:  "about " + words[r.IntN(len(words))],
			FullText:     "text " + words[r.IntN(len(words))],
			Tags:         []string{words[r.IntN(len(words))]},
			Category:     []string{"Programming", "Business"}[r.IntN(2)],
			Language:     langs[r.IntN(len(langs))],
			Publisher:    pubs[r.IntN(len(pubs))],
			Series:       series[r.IntN(len(series))],
			ISBN:         fmt.Sprintf("978-%010d", i),
			Price:        float64(r.IntN(5)) + 0.99,
			Rating:       float64(r.IntN(6)),
			ReviewCount:  r.IntN(4),
			Pages:        []int{150, 200, 201, 400, 401, 900}[r.IntN(6)],
			PublishDate:  domain.NewDate(2019+r.IntN(6), time.Month(1+r.IntN(12)), 1),
			HasAudiobook: r.IntN(2) == 0,
		})
	}
	return books
}

var allSorts = []string{
	domain.SortRelevance, domain.SortPopularity, domain.SortRating, domain.SortNewest,
	domain.SortOldest, domain.SortPriceLow, domain.SortPriceHigh, domain.SortPagesShort,
	domain.SortPagesLong, domain.SortTitleAZ, domain.SortTitleZA, domain.SortAuthorAZ,
	domain.SortBestseller, "", "unknown",
}

func TestSearch_WebQueryMatchesOneBook(t *testing.T) {
	res := New().Search(domain.ReferenceCatalog(), domain.Query{
		Text: "web", Type: domain.SearchAll, SortBy: domain.SortRelevance, Page: 1, Limit: 12,
	})

	assert.Equal(t, 1, res.Total)
	assert.Equal(t, []string{"The Art of Web Development"}, titles(res.Books))
	assert.Equal(t, 1, res.TotalPages)
	assert.False(t, res.HasMore)
}

func TestSearch_PriceLowOrdering(t *testing.T) {
	res := New().Search(domain.ReferenceCatalog(), domain.Query{SortBy: domain.SortPriceLow, Page: 1, Limit: 12})

	assert.Equal(t, []string{
		"Creative Writing Workshop",
		"Digital Marketing Mastery",
		"The Art of Web Development",
		"Business Strategy Guide",
		"AI and Machine Learning",
	}, titles(res.Books))
}

func TestSearch_SecondPageOfTitleOrder(t *testing.T) {
	res := New().Search(domain.ReferenceCatalog(), domain.Query{SortBy: domain.SortTitleAZ, Page: 2, Limit: 2})

	assert.Equal(t, []string{"Creative Writing Workshop", "Digital Marketing Mastery"}, titles(res.Books))
	assert.True(t, res.HasMore)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 3, res.TotalPages)
}

func TestSearch_LongBooks(t *testing.T) {
	res := New().Search(domain.ReferenceCatalog(), domain.Query{
		Filters: domain.Filters{PageCount: domain.PagesLong}, SortBy: domain.SortPagesLong, Page: 1, Limit: 12,
	})

	assert.Equal(t, []string{"AI and Machine Learning", "The Art of Web Development"}, titles(res.Books))
}

func TestSearch_Comparators(t *testing.T) {
	tests := []struct {
		sortBy string
		want   []int64
	}{
		{domain.SortPopularity, []int64{3, 1, 5, 2, 4}},
		{domain.SortBestseller, []int64{3, 1, 5, 2, 4}},
		{domain.SortRating, []int64{3, 1, 4, 2, 5}},
		{domain.SortNewest, []int64{1, 2, 3, 4, 5}},
		{domain.SortOldest, []int64{5, 4, 3, 2, 1}},
		{domain.SortPriceLow, []int64{4, 2, 1, 5, 3}},
		{domain.SortPriceHigh, []int64{3, 5, 1, 2, 4}},
		{domain.SortPagesShort, []int64{4, 2, 5, 1, 3}},
		{domain.SortPagesLong, []int64{3, 1, 5, 2, 4}},
		{domain.SortTitleAZ, []int64{3, 5, 4, 2, 1}},
		{domain.SortTitleZA, []int64{1, 2, 4, 5, 3}},
		{domain.SortAuthorAZ, []int64{3, 4, 1, 5, 2}},
		{"no-such-sort", []int64{3, 1, 5, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			res := New().Search(domain.ReferenceCatalog(), domain.Query{SortBy: tt.sortBy, Page: 1, Limit: 12})
			assert.Equal(t, tt.want, ids(res.Books))
		})
	}
}

func TestSearch_DefaultOrderPrefersTitleMatches(t *testing.T) {
	res := New().Search(domain.ReferenceCatalog(), domain.Query{Text: "ma", SortBy: "", Page: 1, Limit: 12})

	// Titles containing "ma" (3, 2) come first, then the books matched on
	// author, tag or description, each group by review count.
	assert.Equal(t, []int64{3, 2, 1, 5, 4}, ids(res.Books))
}

func TestSearch_RelevanceScoring(t *testing.T) {
	e := New()
	catalog := domain.ReferenceCatalog()

	res := e.Search(catalog, domain.Query{Text: "Business", SortBy: domain.SortRelevance, Page: 1, Limit: 12})
	assert.Equal(t, []int64{5, 2}, ids(res.Books))

	// title contains + prefix + description + 4.5*123/1000
	assert.InDelta(t, 10+5+4+0.5535, e.Score(&catalog[4], "business"), 1e-9)
	// description + 4.6*89/1000
	assert.InDelta(t, 4+0.4094, e.Score(&catalog[1], "business"), 1e-9)
	// title + tag + description + 4.9*234/1000
	assert.InDelta(t, 10+6+4+1.1466, e.Score(&catalog[2], "machine"), 1e-9)
	// author only
	assert.InDelta(t, 8+4.7*67/1000.0, e.Score(&catalog[3], "emma"), 1e-9)
}

func TestSearch_RelevanceTiesBreakByID(t *testing.T) {
	e := New(WithWeights(Weights{}))
	catalog := domain.ReferenceCatalog()
	// Reverse the input so insertion order cannot explain the result.
	for i, j := 0, len(catalog)-1; i < j; i, j = i+1, j-1 {
		catalog[i], catalog[j] = catalog[j], catalog[i]
	}

	res := e.Search(catalog, domain.Query{SortBy: domain.SortRelevance, Page: 1, Limit: 12})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(res.Books))
}

func TestSearch_SearchTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  domain.SearchType
		text string
		want []int64
	}{
		{"title", domain.SearchTitle, "guide", []int64{5}},
		{"title ignores description", domain.SearchTitle, "comprehensive", []int64{}},
		{"author", domain.SearchAuthor, "CHEN", []int64{3}},
		{"content", domain.SearchContent, "neural", []int64{3}},
		{"content ignores title", domain.SearchContent, "web", []int64{}},
		{"isbn", domain.SearchISBN, "567894", []int64{5}},
		{"all matches tags", domain.SearchAll, "react", []int64{1}},
		{"all matches description", domain.SearchAll, "economy", []int64{5}},
		{"all ignores full text", domain.SearchAll, "neural", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New().Search(domain.ReferenceCatalog(), domain.Query{
				Text: tt.text, Type: tt.typ, SortBy: domain.SortRelevance, Page: 1, Limit: 12,
			})
			assert.Equal(t, tt.want, ids(res.Books))
			assert.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestSearch_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters domain.Filters
		want    []int64
	}{
		{"none", domain.Filters{}, []int64{1, 2, 3, 4, 5}},
		{"audiobook", domain.Filters{Audiobook: true}, []int64{1, 3}},
		{"language", domain.Filters{Language: "English"}, []int64{1, 2, 3, 4, 5}},
		{"language is exact", domain.Filters{Language: "english"}, []int64{}},
		{"publisher", domain.Filters{Publisher: "Market Press"}, []int64{2, 5}},
		{"series", domain.Filters{Series: "Web Development Mastery"}, []int64{1}},
		{"year from", domain.Filters{YearFrom: intPtr(2024)}, []int64{1, 2, 3}},
		{"year to", domain.Filters{YearTo: intPtr(2023)}, []int64{4, 5}},
		{"empty year range", domain.Filters{YearFrom: intPtr(2025), YearTo: intPtr(2020)}, []int64{}},
		{"short", domain.Filters{PageCount: domain.PagesShort}, []int64{}},
		{"medium", domain.Filters{PageCount: domain.PagesMedium}, []int64{2, 4, 5}},
		{"unknown bucket", domain.Filters{PageCount: "huge"}, []int64{1, 2, 3, 4, 5}},
		{"category folds case", domain.Filters{Category: "business"}, []int64{2, 5}},
		{"category all", domain.Filters{Category: "all"}, []int64{1, 2, 3, 4, 5}},
		{"min price", domain.Filters{MinPrice: floatPtr(25)}, []int64{1, 3, 5}},
		{"max price", domain.Filters{MaxPrice: floatPtr(25)}, []int64{2, 4}},
		{"min rating", domain.Filters{MinRating: floatPtr(4.7)}, []int64{1, 3, 4}},
		{"conjunction", domain.Filters{Audiobook: true, PageCount: domain.PagesLong, Publisher: "Tech Books Inc", YearFrom: intPtr(2024)}, []int64{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New().Search(domain.ReferenceCatalog(), domain.Query{Filters: tt.filters, SortBy: domain.SortNewest, Page: 1, Limit: 12})
			got := ids(res.Books)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestSearch_PagingEdges(t *testing.T) {
	e := New()

	t.Run("normalizes invalid paging", func(t *testing.T) {
		res := e.Search(domain.ReferenceCatalog(), domain.Query{Page: 0, Limit: -3})
		assert.Equal(t, 1, res.Page)
		assert.Len(t, res.Books, 5)
		assert.Equal(t, 1, res.TotalPages)
	})

	t.Run("out of range page is empty", func(t *testing.T) {
		res := e.Search(domain.ReferenceCatalog(), domain.Query{Page: 10, Limit: 2})
		assert.NotNil(t, res.Books)
		assert.Empty(t, res.Books)
		assert.Equal(t, 5, res.Total)
		assert.False(t, res.HasMore)
	})

	t.Run("empty catalog", func(t *testing.T) {
		res := e.Search(nil, domain.Query{Text: "anything", Page: 1, Limit: 12})
		assert.Equal(t, 0, res.Total)
		assert.Equal(t, 1, res.TotalPages)
		assert.NotNil(t, res.Books)
		assert.Empty(t, res.Books)
		assert.Empty(t, res.Facets.Years)
	})

	t.Run("page whose offset overflows is empty", func(t *testing.T) {
		for _, q := range []domain.Query{
			{Page: 1 << 62, Limit: 12},
			{Page: math.MaxInt, Limit: math.MaxInt},
			{Page: 2, Limit: math.MaxInt},
		} {
			var res domain.SearchResult
			require.NotPanics(t, func() { res = e.Search(domain.ReferenceCatalog(), q) })
			assert.NotNil(t, res.Books)
			assert.Empty(t, res.Books)
			assert.Equal(t, 5, res.Total)
			assert.Equal(t, 1, res.TotalPages)
			assert.False(t, res.HasMore)
		}
	})

	t.Run("limit larger than the catalog", func(t *testing.T) {
		res := e.Search(domain.ReferenceCatalog(), domain.Query{Page: 1, Limit: math.MaxInt})
		assert.Len(t, res.Books, 5)
		assert.Equal(t, 1, res.TotalPages)
		assert.False(t, res.HasMore)
	})

	t.Run("last full page has no more", func(t *testing.T) {
		res := e.Search(domain.ReferenceCatalog(), domain.Query{Page: 1, Limit: 5})
		assert.False(t, res.HasMore)
	})
}

func TestSearch_DoesNotMutateCatalog(t *testing.T) {
	catalog := domain.ReferenceCatalog()
	before := domain.ReferenceCatalog()

	New().Search(catalog, domain.Query{SortBy: domain.SortPriceHigh, Page: 1, Limit: 12})
	assert.Equal(t, before, catalog)
}

func TestSuggestions(t *testing.T) {
	catalog := domain.ReferenceCatalog()

	assert.Equal(t, []string{
		"Digital Marketing Mastery",
		"marketing",
		"AI and Machine Learning",
		"machine learning",
		"Emma Wilson",
	}, Suggestions(catalog, "ma"))

	assert.Equal(t, []string{"The Art of Web Development", "web development"}, Suggestions(catalog, "WEB"))
	assert.Empty(t, Suggestions(catalog, "w"))
	assert.Empty(t, Suggestions(catalog, ""))
	assert.NotNil(t, Suggestions(catalog, ""))
	assert.Empty(t, Suggestions(catalog, "zz"))
}

func TestSuggestions_Distinct(t *testing.T) {
	catalog := []domain.Book{
		{ID: 1, Title: "Go Patterns", Author: "Go Team", Tags: []string{"go"}},
		{ID: 2, Title: "Go Patterns", Author: "Go Team", Tags: []string{"go", "golang"}},
	}
	assert.Equal(t, []string{"Go Patterns", "Go Team", "go", "golang"}, Suggestions(catalog, "go"))
}

func TestComputeFacets(t *testing.T) {
	f := ComputeFacets(domain.ReferenceCatalog())

	assert.Equal(t, []string{"English"}, f.Languages)
	assert.Equal(t, []string{"Tech Books Inc", "Market Press", "Inkwell House"}, f.Publishers)
	assert.Equal(t, []string{"Web Development Mastery"}, f.Series)
	assert.Equal(t, []string{"Programming", "Business", "Technology", "Writing"}, f.Categories)
	assert.Equal(t, []int{2024, 2023}, f.Years)
}

func TestSearch_Properties(t *testing.T) {
	e := New()
	catalog := syntheticCatalog(137, 42)
	filterSets := []domain.Filters{
		{},
		{Language: "German"},
		{Publisher: "Market Press", Audiobook: true},
		{Series: "Mastery", PageCount: domain.PagesMedium},
		{YearFrom: intPtr(2021), YearTo: intPtr(2022), PageCount: domain.PagesLong},
		{PageCount: domain.PagesShort, Language: "Turkish"},
	}
	texts := []string{"", "web", "guide", "author 3", "x"}
	wantFacets := ComputeFacets(catalog)

	for _, f := range filterSets {
		for _, text := range texts {
			for _, sortBy := range allSorts {
				q := domain.Query{Text: text, Filters: f, SortBy: sortBy, Page: 1, Limit: 7}
				first := e.Search(catalog, q)

				// Every returned item satisfies every active filter.
				full := e.Search(catalog, domain.Query{Text: text, Filters: f, SortBy: sortBy, Page: 1, Limit: len(catalog) + 1})
				for i := range full.Books {
					require.True(t, matchesFilters(&full.Books[i], &f), "book %d violates %+v", full.Books[i].ID, f)
				}

				// Pages concatenate to the full ordered set.
				var paged []int64
				for p := 1; p <= first.TotalPages; p++ {
					q.Page = p
					page := e.Search(catalog, q)
					assert.Equal(t, p < first.TotalPages, page.HasMore)
					paged = append(paged, ids(page.Books)...)
				}
				require.Equal(t, ids(full.Books), append([]int64{}, paged...), "text=%q sort=%q", text, sortBy)

				// Repeat calls agree apart from timing.
				q.Page = 1
				again := e.Search(catalog, q)
				first.SearchTime, again.SearchTime = 0, 0
				assert.Equal(t, first, again)

				assert.LessOrEqual(t, len(first.Suggestions), 5)
				assert.Equal(t, wantFacets, first.Facets)
			}
		}
	}
}

func TestSuggestions_Bound(t *testing.T) {
	catalog := syntheticCatalog(300, 7)
	for _, text := range []string{"a", "au", "volume", "e", "gu", "da"} {
		got := Suggestions(catalog, text)
		assert.LessOrEqual(t, len(got), 5)
		if len([]rune(text)) < 2 {
			assert.Empty(t, got)
		}
	}
}
