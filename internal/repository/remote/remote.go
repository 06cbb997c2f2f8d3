// Package remote reads and writes the catalog of another m-book instance
// over HTTP through a circuit breaker.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/pkg/httpclient"
	"github.com/Mortiou/m-book/pkg/httputil"
	"github.com/Mortiou/m-book/pkg/pagination"
)

const breakerName = "catalog-upstream"

// Store implements repository.CatalogRepository against an upstream
// catalog service.
type Store struct {
	baseURL string
	token   string
	client  *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithAdminToken sends token as a bearer credential on writes.
func WithAdminToken(token string) Option {
	return func(s *Store) { s.token = token }
}

// WithClient replaces the default circuit-breaker client.
func WithClient(c *httpclient.CircuitBreakerClient) Option {
	return func(s *Store) { s.client = c }
}

// New creates a store for the catalog service at baseURL.
func New(baseURL string, l *slog.Logger, opts ...Option) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote catalog: invalid base url %q", baseURL)
	}

	s := &Store{baseURL: strings.TrimRight(baseURL, "/"), logger: l}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig(breakerName),
			l,
		)
	}
	return s, nil
}

type dataEnvelope struct {
	Data domain.Book `json:"data"`
}

// List pages through the upstream book list.
func (s *Store) List(ctx context.Context) ([]domain.Book, error) {
	books := []domain.Book{}
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/api/v1/books?page=%d&limit=%d", s.baseURL, page, pagination.MaxLimit)

		var body httputil.PaginatedResponse[domain.Book]
		resp, err := s.client.Get(ctx, endpoint)
		if err := s.client.Expect(resp, err, &body); err != nil {
			return nil, err
		}

		for i := range body.Data {
			body.Data[i].Normalize()
		}
		books = append(books, body.Data...)
		if !body.HasNext || len(body.Data) == 0 {
			s.logger.DebugContext(ctx, "loaded remote catalog", slog.Int("books", len(books)), slog.Int("pages", page))
			return books, nil
		}
	}
}

// Get fetches one book.
func (s *Store) Get(ctx context.Context, id int64) (*domain.Book, error) {
	var body dataEnvelope
	resp, err := s.client.Get(ctx, s.bookURL(id))
	if err := s.client.Expect(resp, err, &body); err != nil {
		return nil, err
	}
	body.Data.Normalize()
	return &body.Data, nil
}

// Add posts book upstream and copies the assigned id back.
func (s *Store) Add(ctx context.Context, book *domain.Book) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("remote catalog: marshal book: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/books", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("remote catalog: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	var body dataEnvelope
	resp, err := s.client.Do(ctx, req)
	if err := s.client.Expect(resp, err, &body); err != nil {
		return err
	}
	book.ID = body.Data.ID
	return nil
}

// Delete removes a book upstream.
func (s *Store) Delete(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.bookURL(id), http.NoBody)
	if err != nil {
		return fmt.Errorf("remote catalog: create request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(ctx, req)
	return s.client.Expect(resp, err, nil)
}

// Ping checks the upstream liveness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.client.Get(ctx, s.baseURL+"/health/live")
	return s.client.Expect(resp, err, nil)
}

func (s *Store) bookURL(id int64) string {
	return s.baseURL + "/api/v1/books/" + strconv.FormatInt(id, 10)
}

func (s *Store) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
