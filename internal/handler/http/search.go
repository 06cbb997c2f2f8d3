package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Mortiou/m-book/internal/service"
	"github.com/Mortiou/m-book/pkg/httputil"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.CatalogService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// Advanced handles GET /api/search/advanced. The body is the bare result,
// not wrapped in a data envelope.
func (h *SearchHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Search(r.Context(), parseAdvancedQuery(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Basic handles GET /api/search.
func (h *SearchHandler) Basic(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.LegacySearch(r.Context(), parseBasicQuery(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.Suggest(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// Facets handles GET /api/v1/search/facets
func (h *SearchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: facets})
}
