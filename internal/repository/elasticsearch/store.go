// Package elasticsearch stores the catalog as documents in an Elasticsearch
// index keyed by book id.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/pkg/database"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
)

// scanPageSize is the number of documents fetched per List round trip.
const scanPageSize = 500

// Store implements repository.CatalogRepository on Elasticsearch.
type Store struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source domain.Book `json:"_source"`
			Sort   []any       `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		MaxID struct {
			Value *float64 `json:"value"`
		} `json:"max_id"`
	} `json:"aggregations"`
}

type esGetResponse struct {
	Found  bool        `json:"found"`
	Source domain.Book `json:"_source"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New connects to esURL and ensures the index exists, creating it with the
// books mapping when absent. An empty indexName selects DefaultIndexName.
func New(ctx context.Context, esURL, indexName string, logger *slog.Logger) (*Store, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	s := &Store{client: client, indexName: indexName, logger: logger}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return s, nil
}

// Ping checks whether the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (s *Store) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.indexName}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		s.logger.Info("elasticsearch index already exists", "index", s.indexName)
		return nil
	}

	res, err = s.client.Indices.Create(
		s.indexName,
		s.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	s.logger.Info("elasticsearch index created", "index", s.indexName)
	return nil
}

// List pages through the index in id order with search_after.
func (s *Store) List(ctx context.Context) (books []domain.Book, err error) {
	ctx, end := database.TraceStore(ctx, database.SystemElasticsearch, "ListBooks", s.indexName)
	defer func() { end(err) }()

	books = []domain.Book{}
	var after []any
	for {
		body := map[string]any{
			"query": map[string]any{"match_all": map[string]any{}},
			"size":  scanPageSize,
			"sort":  []any{map[string]any{"id": "asc"}},
		}
		if after != nil {
			body["search_after"] = after
		}

		var resp esSearchResponse
		if err := s.search(ctx, "elasticsearch list", body, &resp); err != nil {
			return nil, err
		}

		hits := resp.Hits.Hits
		for i := range hits {
			hits[i].Source.Normalize()
			books = append(books, hits[i].Source)
		}
		if len(hits) < scanPageSize {
			return books, nil
		}
		after = hits[len(hits)-1].Sort
	}
}

// Get retrieves a book document by id.
func (s *Store) Get(ctx context.Context, id int64) (b *domain.Book, err error) {
	ctx, end := database.TraceStore(ctx, database.SystemElasticsearch, "GetBook", s.indexName)
	defer func() { end(err) }()

	docID := strconv.FormatInt(id, 10)
	res, err := s.client.Get(s.indexName, docID, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("book", docID)
	}
	if res.IsError() {
		return nil, responseError("elasticsearch get", res)
	}

	var doc esGetResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("elasticsearch get: decode response: %w", err)
	}
	if !doc.Found {
		return nil, apperrors.NotFound("book", docID)
	}
	doc.Source.Normalize()
	return &doc.Source, nil
}

// Add creates a book document. A zero id takes the current maximum id plus
// one; an existing id yields AlreadyExists.
func (s *Store) Add(ctx context.Context, book *domain.Book) (err error) {
	ctx, end := database.TraceStore(ctx, database.SystemElasticsearch, "AddBook", s.indexName)
	defer func() { end(err) }()

	if book.ID == 0 {
		maxID, err := s.maxID(ctx)
		if err != nil {
			return err
		}
		book.ID = maxID + 1
	}
	book.Normalize()

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("elasticsearch add: marshal book: %w", err)
	}

	docID := strconv.FormatInt(book.ID, 10)
	res, err := s.client.Create(
		s.indexName,
		docID,
		bytes.NewReader(data),
		s.client.Create.WithRefresh("true"),
		s.client.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch add: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusConflict {
		return apperrors.AlreadyExists("book", "id", docID)
	}
	if res.IsError() {
		return responseError("elasticsearch add", res)
	}

	s.logger.Debug("indexed book", "id", book.ID, "title", book.Title)
	return nil
}

// Delete removes a book document by id.
func (s *Store) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceStore(ctx, database.SystemElasticsearch, "DeleteBook", s.indexName)
	defer func() { end(err) }()

	docID := strconv.FormatInt(id, 10)
	res, err := s.client.Delete(
		s.indexName,
		docID,
		s.client.Delete.WithRefresh("true"),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return apperrors.NotFound("book", docID)
	}
	if res.IsError() {
		return responseError("elasticsearch delete", res)
	}

	s.logger.Debug("deleted book", "id", id)
	return nil
}

// DeleteIndex drops the whole index. A missing index is not an error.
func (s *Store) DeleteIndex(ctx context.Context) error {
	res, err := s.client.Indices.Delete(
		[]string{s.indexName},
		s.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete index", res)
	}

	s.logger.Info("elasticsearch index deleted", "index", s.indexName)
	return nil
}

func (s *Store) maxID(ctx context.Context) (int64, error) {
	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"max_id": map[string]any{"max": map[string]any{"field": "id"}},
		},
	}
	var resp esSearchResponse
	if err := s.search(ctx, "elasticsearch max id", body, &resp); err != nil {
		return 0, err
	}
	if resp.Aggregations.MaxID.Value == nil {
		return 0, nil
	}
	return int64(*resp.Aggregations.MaxID.Value), nil
}

func (s *Store) search(ctx context.Context, op string, body map[string]any, dst *esSearchResponse) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal query: %w", op, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.indexName),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError(op, res)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)
	var errResp esErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}
