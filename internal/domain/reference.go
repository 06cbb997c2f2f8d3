package domain

import "time"

// ReferenceCatalog returns a fresh copy of the five-book starter catalog the
// service is seeded with.
func ReferenceCatalog() []Book {
	return []Book{
		{
			ID:            1,
			Title:         "The Art of Web Development",
			Author:        "John Smith",
			Description:   "Master modern web development with this comprehensive guide covering HTML, CSS, JavaScript, and popular frameworks.",
			FullText:      "This comprehensive guide covers everything from basic HTML to advanced React patterns...",
			Tags:          []string{"web development", "javascript", "react", "frontend"},
			Category:      "Programming",
			Language:      "English",
			Publisher:     "Tech Books Inc",
			Series:        "Web Development Mastery",
			SeriesNumber:  1,
			ISBN:          "978-1234567890",
			Price:         29.99,
			OriginalPrice: 39.99,
			Rating:        4.8,
			ReviewCount:   156,
			Pages:         450,
			PublishDate:   NewDate(2024, time.January, 15),
			Formats:       []string{"PDF", "EPUB"},
			HasAudiobook:  true,
			Narrator:      "Alex Johnson",
		},
		{
			ID:            2,
			Title:         "Digital Marketing Mastery",
			Author:        "Sarah Johnson",
			Description:   "Learn the secrets of successful digital marketing campaigns and grow your business online.",
			FullText:      "Every campaign starts with a clear audience. This chapter walks through personas, funnels and channel selection...",
			Tags:          []string{"marketing", "digital", "social media", "advertising"},
			Category:      "Business",
			Language:      "English",
			Publisher:     "Market Press",
			ISBN:          "978-1234567891",
			Price:         24.99,
			OriginalPrice: 29.99,
			Rating:        4.6,
			ReviewCount:   89,
			Pages:         320,
			PublishDate:   NewDate(2024, time.January, 10),
			Formats:       []string{"PDF", "EPUB", "MOBI"},
		},
		{
			ID:            3,
			Title:         "AI and Machine Learning",
			Author:        "Dr. Michael Chen",
			Description:   "Dive deep into artificial intelligence and machine learning with practical examples and real-world applications.",
			FullText:      "A model is only as good as its data. We begin with linear regression and build up to neural networks...",
			Tags:          []string{"ai", "machine learning", "python", "data science"},
			Category:      "Technology",
			Language:      "English",
			Publisher:     "Tech Books Inc",
			ISBN:          "978-1234567892",
			Price:         39.99,
			OriginalPrice: 49.99,
			Rating:        4.9,
			ReviewCount:   234,
			Pages:         580,
			PublishDate:   NewDate(2024, time.January, 5),
			Formats:       []string{"PDF", "EPUB"},
			HasAudiobook:  true,
			Narrator:      "Maria Garcia",
		},
		{
			ID:            4,
			Title:         "Creative Writing Workshop",
			Author:        "Emma Wilson",
			Description:   "Unlock your creative potential with proven writing techniques and exercises from professional authors.",
			FullText:      "Open a blank page and write for ten minutes without stopping. Do not edit, do not judge...",
			Tags:          []string{"creative writing", "storytelling", "fiction", "narrative"},
			Category:      "Writing",
			Language:      "English",
			Publisher:     "Inkwell House",
			ISBN:          "978-1234567893",
			Price:         19.99,
			OriginalPrice: 24.99,
			Rating:        4.7,
			ReviewCount:   67,
			Pages:         280,
			PublishDate:   NewDate(2023, time.December, 20),
			Formats:       []string{"PDF", "EPUB", "MOBI"},
		},
		{
			ID:            5,
			Title:         "Business Strategy Guide",
			Author:        "Robert Davis",
			Description:   "Essential strategies for building and scaling successful businesses in the modern economy.",
			FullText:      "Strategy is the art of choosing what not to do. We examine competitive positioning and growth levers...",
			Tags:          []string{"strategy", "management", "leadership", "entrepreneurship"},
			Category:      "Business",
			Language:      "English",
			Publisher:     "Market Press",
			ISBN:          "978-1234567894",
			Price:         34.99,
			OriginalPrice: 44.99,
			Rating:        4.5,
			ReviewCount:   123,
			Pages:         380,
			PublishDate:   NewDate(2023, time.December, 15),
			Formats:       []string{"PDF", "EPUB"},
		},
	}
}
