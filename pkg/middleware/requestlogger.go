package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Mortiou/m-book/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, user_id, trace_id and span_id plus the request path. Search
// requests also carry their raw query text and search type, so every line a
// search handler writes can be tied back to what the reader typed. Mount it
// after RequestLogging and Tracing; handlers fetch it with logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			l := logger.WithContext(ctx, base).With(searchAttrs(r)...)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, l)))
		})
	}
}

func searchAttrs(r *http.Request) []any {
	attrs := []any{slog.String("path", r.URL.Path)}
	q := r.URL.Query()
	if q.Has("q") {
		attrs = append(attrs, slog.String("search_text", q.Get("q")))
	}
	if t := q.Get("type"); t != "" {
		attrs = append(attrs, slog.String("search_type", t))
	}
	return attrs
}
