package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/Mortiou/m-book/pkg/slug"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

var staticPages = []string{"", "/search", "/about", "/contact", "/privacy", "/terms"}

// URLSet is the root element of a sitemap document.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL is one <url> entry.
type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap lists the static pages followed by one entry per book, rooted at
// baseURL.
func (s *CatalogService) Sitemap(ctx context.Context, baseURL string) (*URLSet, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap: load catalog: %w", err)
	}

	base := strings.TrimRight(baseURL, "/")
	lastMod := s.now().UTC().Format(time.RFC3339)

	set := &URLSet{
		XMLNS: sitemapNamespace,
		URLs:  make([]SitemapURL, 0, len(staticPages)+len(catalog)),
	}
	for _, page := range staticPages {
		priority := "0.8"
		if page == "" {
			priority = "1.0"
		}
		set.URLs = append(set.URLs, SitemapURL{
			Loc:        base + page,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}
	for i := range catalog {
		set.URLs = append(set.URLs, SitemapURL{
			Loc:        base + "/book/" + slug.WithID(catalog[i].ID, catalog[i].Title),
			LastMod:    lastMod,
			ChangeFreq: "monthly",
			Priority:   "0.9",
		})
	}
	return set, nil
}

// Encode writes the sitemap as an XML document with its declaration.
func (u *URLSet) Encode() ([]byte, error) {
	body, err := xml.MarshalIndent(u, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
