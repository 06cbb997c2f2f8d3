package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
		preset string
		want   string
	}{
		{"get ok", http.MethodGet, http.StatusOK, "", "public, max-age=300"},
		{"head ok", http.MethodHead, http.StatusOK, "", "public, max-age=300"},
		{"get not found", http.MethodGet, http.StatusNotFound, "", "no-store"},
		{"get server error", http.MethodGet, http.StatusInternalServerError, "", "no-store"},
		{"post untouched", http.MethodPost, http.StatusCreated, "", ""},
		{"handler wins", http.MethodGet, http.StatusOK, "private", "private"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CacheControl(5 * time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.preset != "" {
					w.Header().Set("Cache-Control", tt.preset)
				}
				w.WriteHeader(tt.status)
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/search", nil))
			assert.Equal(t, tt.want, rec.Header().Get("Cache-Control"))
		})
	}
}

func TestCacheControl_ImplicitOKOnWrite(t *testing.T) {
	h := CacheControl(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "{}", rec.Body.String())
}
