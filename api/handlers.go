package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gobeaver/streamurl/filekit"
	"github.com/gobeaver/streamurl/history"
	"github.com/gobeaver/streamurl/streamurl"
)

const maxBodyBytes = 1 << 20

type generateResponse struct {
	URLs    streamurl.URLSet     `json:"urls"`
	Ordered []streamurl.NamedURL `json:"ordered"`
	Record  *history.Record      `json:"record"`
}

type verifyRequest struct {
	URL       string              `json:"url"`
	SecretKey string              `json:"key"`
	Algorithm streamurl.Algorithm `json:"encryption"`
}

type verifyResponse struct {
	Valid     bool      `json:"valid"`
	TxTime    string    `json:"txTime"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *server) generate(w http.ResponseWriter, r *http.Request) {
	var cfg streamurl.Config
	if !s.decode(w, r, &cfg) {
		return
	}
	dir := direction(r)

	rec, err := s.rec.Generate(r.Context(), dir, cfg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		URLs:    rec.URLs,
		Ordered: rec.URLs.Ordered(dir),
		Record:  rec,
	})
}

func (s *server) validate(w http.ResponseWriter, r *http.Request) {
	var cfg streamurl.Config
	if !s.decode(w, r, &cfg) {
		return
	}
	writeJSON(w, http.StatusOK, s.rec.Validate(cfg))
}

func (s *server) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	alg, err := streamurl.ParseAlgorithm(string(req.Algorithm))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tok, err := s.rec.Verify(req.URL, req.SecretKey, alg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	exp, err := tok.ExpiresAt()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, TxTime: tok.HexTime, ExpiresAt: exp})
}

func (s *server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.rec.LastConfig(r.Context(), direction(r))
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (s *server) saveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg streamurl.Config
	if !s.decode(w, r, &cfg) {
		return
	}
	if err := s.rec.SaveConfig(r.Context(), direction(r), cfg); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) listHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.rec.List(r.Context(), direction(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (s *server) addHistory(w http.ResponseWriter, r *http.Request) {
	var rec history.Record
	if !s.decode(w, r, &rec) {
		return
	}
	rec.Direction = direction(r)
	if err := s.rec.Add(r.Context(), rec); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) getHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := s.rec.Get(r.Context(), direction(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (s *server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.rec.Delete(r.Context(), direction(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.rec.Clear(r.Context(), direction(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) historyInputs(w http.ResponseWriter, r *http.Request) {
	in, err := s.rec.Inputs(r.Context(), direction(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *server) exportHistory(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export storage is not configured")
		return
	}
	name, err := s.exporter.Export(r.Context(), direction(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": name})
}

func (s *server) listExports(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export storage is not configured")
		return
	}
	files, err := s.exporter.Exports(r.Context(), direction(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if files == nil {
		files = []filekit.File{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": files})
}

func (s *server) loadExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export storage is not configured")
		return
	}
	snap, err := s.exporter.Load(r.Context(), direction(r), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type restoreRequest struct {
	Name string `json:"name"`
}

func (s *server) restoreHistory(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export storage is not configured")
		return
	}
	var req restoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	n, err := s.exporter.Restore(r.Context(), direction(r), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"restored": n})
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// fail maps err to a status code. Unexpected errors are logged and hidden
// from the client.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *streamurl.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": verr.Error(), "errors": verr.Messages})
	case errors.Is(err, history.ErrNotFound), errors.Is(err, filekit.ErrNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, streamurl.ErrUnknownDirection):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, streamurl.ErrInvalidTimeFormat),
		errors.Is(err, streamurl.ErrUnsupportedAlgorithm),
		errors.Is(err, streamurl.ErrUnsupportedProtocol),
		errors.Is(err, streamurl.ErrInvalidURL),
		errors.Is(err, streamurl.ErrSignatureNotFound),
		errors.Is(err, streamurl.ErrInvalidSignature),
		errors.Is(err, streamurl.ErrExpired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error(err, "request failed", "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
