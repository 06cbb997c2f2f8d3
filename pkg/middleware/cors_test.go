package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_Origins(t *testing.T) {
	prod := []string{"https://m-book.example", "https://admin.m-book.example"}

	tests := []struct {
		name    string
		cfg     CORSConfig
		origin  string
		want    string
		wantVar bool
	}{
		{"dev allows any", CORSConfig{AllowedOrigins: prod, Environment: "development"}, "https://evil.example", "*", false},
		{"dev without origin", CORSConfig{Environment: "development"}, "", "*", false},
		{"wildcard in list", CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}, "https://any.example", "*", false},
		{"listed origin echoed", CORSConfig{AllowedOrigins: prod, Environment: "production"}, "https://admin.m-book.example", "https://admin.m-book.example", true},
		{"unlisted origin", CORSConfig{AllowedOrigins: prod, Environment: "production"}, "https://evil.example", "", false},
		{"no origin header", CORSConfig{AllowedOrigins: prod, Environment: "production"}, "", "", false},
		{"subdomain pattern", CORSConfig{AllowedOrigins: []string{"https://*.m-book.example"}}, "https://shop.m-book.example", "https://shop.m-book.example", true},
		{"nested subdomain", CORSConfig{AllowedOrigins: []string{"https://*.m-book.example"}}, "https://a.b.m-book.example", "https://a.b.m-book.example", true},
		{"pattern scheme mismatch", CORSConfig{AllowedOrigins: []string{"https://*.m-book.example"}}, "http://shop.m-book.example", "", false},
		{"pattern apex", CORSConfig{AllowedOrigins: []string{"https://*.m-book.example"}}, "https://m-book.example", "", false},
		{"pattern suffix trick", CORSConfig{AllowedOrigins: []string{"https://*.m-book.example"}}, "https://evilm-book.example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/search/advanced?q=web", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.cfg)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVar, rec.Header().Get("Vary") == "Origin")
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "https://m-book.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "GET, HEAD, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Authorization, Content-Type, X-Correlation-ID", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Correlation-ID, Retry-After", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_CustomSettings(t *testing.T) {
	h := CORS(CORSConfig{
		AllowedOrigins:   []string{"https://m-book.example"},
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"Accept"},
		MaxAge:           600,
		AllowCredentials: true,
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/facets", nil)
	req.Header.Set("Origin", "https://m-book.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Empty(t, rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_ZeroConfigUsesDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS(CORSConfig{})(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "GET, HEAD, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
