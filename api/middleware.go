package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"

	"github.com/gobeaver/streamurl/krypto"
	"github.com/gobeaver/streamurl/metrics"
	"github.com/gobeaver/streamurl/streamurl"
)

type ctxKey int

const (
	directionKey ctxKey = iota
	claimsKey
)

// requestLogger logs each request at V(1) and records its duration under
// the matched route pattern.
func requestLogger(log logr.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(route, r.Method, strconv.Itoa(status), elapsed.Seconds())

			log.V(1).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"remote", r.RemoteAddr,
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// corsHandler allows the listed origins, or any origin for "*". An empty
// list installs nothing, so no CORS headers are sent.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-Request-Id"},
		MaxAge:         600,
	})
}

// bearerAuth requires an API token signed with key.
func bearerAuth(key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="streamurl"`)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := krypto.ParseAPIToken(key, token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="streamurl", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// withDirection resolves the {dir} route parameter; "stream" and "play"
// are accepted alongside the canonical names.
func withDirection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dir, err := streamurl.ParseDirection(chi.URLParam(r, "dir"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), directionKey, dir)))
	})
}

func direction(r *http.Request) streamurl.Direction {
	dir, _ := r.Context().Value(directionKey).(streamurl.Direction)
	return dir
}

// Claims returns the verified API token claims of the request, if any.
func Claims(ctx context.Context) (*krypto.APIClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*krypto.APIClaims)
	return c, ok
}
