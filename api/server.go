// Package api serves the URL generator, saved configurations and history
// over HTTP for the web form.
package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/gobeaver/streamurl/history"
	"github.com/gobeaver/streamurl/metrics"
)

// Options wires the router. Recorder is required; the rest is optional.
type Options struct {
	Recorder *history.Recorder
	Exporter *history.Exporter
	Metrics  *metrics.Metrics
	Logger   logr.Logger

	// Health reports whether backing services answer; nil means always
	// healthy.
	Health func(ctx context.Context) error

	// JWTKey enables bearer-token auth on /api when set.
	JWTKey      []byte
	CORSOrigins []string

	// RateLimitPerMinute limits /api requests per client IP; 0 disables.
	RateLimitPerMinute int
	RateLimitBurst     int

	// StaticDir holds the built web form, served with index.html as the
	// fallback for unknown paths.
	StaticDir string
}

type server struct {
	rec      *history.Recorder
	exporter *history.Exporter
	metrics  *metrics.Metrics
	log      logr.Logger
	health   func(ctx context.Context) error
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	s := &server{
		rec:      opts.Recorder,
		exporter: opts.Exporter,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		health:   opts.Health,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log, s.metrics))
	r.Use(chimiddleware.Recoverer)
	if mw := corsHandler(opts.CORSOrigins); mw != nil {
		r.Use(mw)
	}

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		if opts.RateLimitPerMinute > 0 {
			r.Use(newRateLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst).middleware)
		}
		if len(opts.JWTKey) > 0 {
			r.Use(bearerAuth(opts.JWTKey))
		}

		r.Route("/{dir}", func(r chi.Router) {
			r.Use(withDirection)

			r.Post("/generate", s.generate)
			r.Post("/validate", s.validate)
			r.Post("/verify", s.verify)

			r.Get("/config", s.getConfig)
			r.Post("/config", s.saveConfig)

			r.Get("/history", s.listHistory)
			r.Post("/history", s.addHistory)
			r.Delete("/history", s.clearHistory)
			r.Get("/history/inputs", s.historyInputs)
			r.Post("/history/export", s.exportHistory)
			r.Get("/history/exports", s.listExports)
			r.Get("/history/exports/{name}", s.loadExport)
			r.Post("/history/restore", s.restoreHistory)
			r.Get("/history/{id}", s.getHistory)
			r.Delete("/history/{id}", s.deleteHistory)
		})
	})

	if opts.StaticDir != "" {
		r.NotFound(spa(opts.StaticDir))
	}
	return r
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Error(err, "health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// spa serves files from dir and falls back to dir/index.html so client-side
// routes load the form.
func spa(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
