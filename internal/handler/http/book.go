package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/internal/service"
	"github.com/Mortiou/m-book/pkg/httputil"
	"github.com/Mortiou/m-book/pkg/middleware"
	"github.com/Mortiou/m-book/pkg/pagination"
	"github.com/Mortiou/m-book/pkg/validator"
)

// maxBookBody bounds a create request body.
const maxBookBody = 1 << 20

// BookHandler handles HTTP requests for catalog records.
type BookHandler struct {
	service *service.CatalogService
	baseURL string
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler. baseURL roots sitemap links.
func NewBookHandler(svc *service.CatalogService, baseURL string, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		baseURL: baseURL,
		logger:  logger,
	}
}

// CreateBookRequest is the JSON request body for adding a book.
type CreateBookRequest struct {
	ID            int64    `json:"id" validate:"gte=0"`
	Title         string   `json:"title" validate:"required,max=500"`
	Author        string   `json:"author" validate:"max=300"`
	Description   string   `json:"description"`
	FullText      string   `json:"fullText"`
	Tags          []string `json:"tags" validate:"max=50,dive,max=100"`
	Category      string   `json:"category" validate:"max=100"`
	Language      string   `json:"language" validate:"max=50"`
	Publisher     string   `json:"publisher" validate:"max=200"`
	Series        string   `json:"series" validate:"max=200"`
	SeriesNumber  int      `json:"seriesNumber" validate:"gte=0"`
	ISBN          string   `json:"isbn" validate:"max=20"`
	Price         float64  `json:"price" validate:"gte=0"`
	OriginalPrice float64  `json:"originalPrice" validate:"gte=0"`
	Rating        float64  `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount   int      `json:"reviewCount" validate:"gte=0"`
	Pages         int      `json:"pages" validate:"gte=0"`
	PublishDate   string   `json:"publishDate" validate:"omitempty,datetime=2006-01-02"`
	Formats       []string `json:"format" validate:"max=10,dive,max=20"`
	Cover         string   `json:"cover" validate:"omitempty,max=2048"`
	HasAudiobook  bool     `json:"audiobook"`
	Narrator      string   `json:"narrator" validate:"max=200"`
}

func (req *CreateBookRequest) toBook() (*domain.Book, error) {
	var date domain.Date
	if req.PublishDate != "" {
		d, err := domain.ParseDate(req.PublishDate)
		if err != nil {
			return nil, err
		}
		date = d
	}
	return &domain.Book{
		ID:            req.ID,
		Title:         strings.TrimSpace(req.Title),
		Author:        strings.TrimSpace(req.Author),
		Description:   req.Description,
		FullText:      req.FullText,
		Tags:          req.Tags,
		Category:      req.Category,
		Language:      req.Language,
		Publisher:     req.Publisher,
		Series:        req.Series,
		SeriesNumber:  req.SeriesNumber,
		ISBN:          strings.TrimSpace(req.ISBN),
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Rating:        req.Rating,
		ReviewCount:   req.ReviewCount,
		Pages:         req.Pages,
		PublishDate:   date,
		Formats:       req.Formats,
		Cover:         req.Cover,
		HasAudiobook:  req.HasAudiobook,
		Narrator:      req.Narrator,
	}, nil
}

// ListBooks handles GET /api/v1/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)

	books, total, err := h.service.ListBooks(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(books, total, p.Page, p.PerPage))
}

// GetBook handles GET /api/v1/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// CreateBook handles POST /api/v1/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBookBody)

	var req CreateBookRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	book, err := req.toBook()
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.AddBook(r.Context(), book); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.audit(r, "create", book.ID)

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: book})
}

// DeleteBook handles DELETE /api/v1/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.audit(r, "delete", id)

	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) audit(r *http.Request, action string, id int64) {
	h.logger.InfoContext(r.Context(), "catalog write",
		slog.String("action", action),
		slog.Int64("book_id", id),
		slog.String("role", middleware.RoleFromContext(r.Context())),
		slog.String("ip", r.RemoteAddr),
	)
}

// Sitemap handles GET /sitemap.xml
func (h *BookHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.Sitemap(r.Context(), h.baseURL)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	body, err := set.Encode()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
