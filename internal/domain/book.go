package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date carried on the wire as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate returns the UTC midnight of year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD". A full RFC 3339 timestamp is also accepted
// and truncated to its date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid date %s: want a string", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Book is one catalog record.
type Book struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	FullText      string   `json:"fullText,omitempty"`
	Tags          []string `json:"tags"`
	Category      string   `json:"category"`
	Language      string   `json:"language"`
	Publisher     string   `json:"publisher"`
	Series        string   `json:"series,omitempty"`
	SeriesNumber  int      `json:"seriesNumber,omitempty"`
	ISBN          string   `json:"isbn"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
	Pages         int      `json:"pages"`
	PublishDate   Date     `json:"publishDate"`
	Formats       []string `json:"format,omitempty"`
	Cover         string   `json:"cover,omitempty"`
	HasAudiobook  bool     `json:"audiobook"`
	Narrator      string   `json:"narrator,omitempty"`
}

// Year returns the publication year, or 0 when the date is unknown.
func (b *Book) Year() int {
	if b.PublishDate.IsZero() {
		return 0
	}
	return b.PublishDate.Year()
}

// Normalize replaces nil slices with empty ones so records encode as [].
func (b *Book) Normalize() {
	if b.Tags == nil {
		b.Tags = []string{}
	}
}

// Validate checks the catalog invariants on a single record.
func (b *Book) Validate() error {
	switch {
	case b.ID < 0:
		return fmt.Errorf("book id must not be negative")
	case strings.TrimSpace(b.Title) == "":
		return fmt.Errorf("book title is required")
	case b.Price < 0:
		return fmt.Errorf("book price must not be negative")
	case b.Rating < 0 || b.Rating > 5:
		return fmt.Errorf("book rating must be within [0,5]")
	case b.ReviewCount < 0:
		return fmt.Errorf("book review count must not be negative")
	case b.Pages < 0:
		return fmt.Errorf("book page count must not be negative")
	}
	return nil
}
