package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Mortiou/m-book/internal/domain"
)

var (
	synthLanguages  = []string{"English", "German", "French", "Spanish", "Turkish"}
	synthPublishers = []string{"Tech Books Inc", "Market Press", "Inkwell House", "Northwind Media", "Lighthouse Editions"}
	synthSeries     = []string{"", "", "", "Mastery", "Workshop", "Field Guide"}
	synthCategories = []string{"Programming", "Business", "Technology", "Writing", "Science", "History"}
	synthFormats    = [][]string{{"PDF", "EPUB"}, {"PDF", "EPUB", "MOBI"}, {"EPUB"}, {"EPUB", "AZW3"}}
	synthTopics     = []string{
		"distributed systems", "web development", "machine learning", "marketing",
		"leadership", "creative writing", "data analysis", "cloud computing",
		"negotiation", "personal finance", "product design", "security",
	}
	synthAdjectives = []string{"Practical", "Modern", "Essential", "Advanced", "Hands-On", "The Complete"}
	synthFirstNames = []string{"Sarah", "Michael", "Emma", "David", "Lisa", "Ahmet", "Elif", "Jonas", "Maria", "Kenji"}
	synthLastNames  = []string{"Johnson", "Chen", "Wilson", "Thompson", "Rodriguez", "Yilmaz", "Kaya", "Weber", "Garcia", "Sato"}
	synthNarrators  = []string{"Alex Morgan", "Sam Rivera", "Jordan Lee"}
)

// synthesize generates n deterministic books for seed. Ids are left at zero
// so the target store assigns them.
func synthesize(n int, seed uint64) []domain.Book {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	books := make([]domain.Book, 0, n)
	for i := 0; i < n; i++ {
		topic := synthTopics[r.IntN(len(synthTopics))]
		title := fmt.Sprintf("%s %s", synthAdjectives[r.IntN(len(synthAdjectives))], titleCase(topic))
		author := synthFirstNames[r.IntN(len(synthFirstNames))] + " " + synthLastNames[r.IntN(len(synthLastNames))]
		price := float64(900+r.IntN(4100)) / 100
		series := synthSeries[r.IntN(len(synthSeries))]

		b := domain.Book{
			Title:         title,
			Author:        author,
			Description:   fmt.Sprintf("A %s introduction to %s for working professionals.", lowerFirst(synthAdjectives[r.IntN(len(synthAdjectives))]), topic),
			FullText:      fmt.Sprintf("Chapter 1. Why %s matters. Chapter 2. Getting started with %s.", topic, topic),
			Tags:          []string{topic, synthCategories[r.IntN(len(synthCategories))]},
			Category:      synthCategories[r.IntN(len(synthCategories))],
			Language:      synthLanguages[r.IntN(len(synthLanguages))],
			Publisher:     synthPublishers[r.IntN(len(synthPublishers))],
			Series:        series,
			ISBN:          fmt.Sprintf("979-%010d", seed%1000*10_000_000+uint64(i)),
			Price:         price,
			OriginalPrice: price + float64(r.IntN(3))*5,
			Rating:        float64(30+r.IntN(21)) / 10,
			ReviewCount:   r.IntN(500),
			Pages:         80 + r.IntN(820),
			PublishDate:   domain.NewDate(2005+r.IntN(20), time.Month(1+r.IntN(12)), 1+r.IntN(28)),
			Formats:       synthFormats[r.IntN(len(synthFormats))],
			HasAudiobook:  r.IntN(3) == 0,
		}
		if series != "" {
			b.SeriesNumber = 1 + r.IntN(5)
		}
		if b.HasAudiobook {
			b.Narrator = synthNarrators[r.IntN(len(synthNarrators))]
		}
		books = append(books, b)
	}
	return books
}

func titleCase(s string) string {
	out := []byte(s)
	upper := true
	for i, c := range out {
		if upper && c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
		upper = c == ' '
	}
	return string(out)
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]-'A'+'a') + s[1:]
}
