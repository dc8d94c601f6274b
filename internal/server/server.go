// Package server exposes the documentation service over HTTP.
//
// Routes:
//
//	GET    /api/v1/docs/{name}   documentation lookup (?refresh=true bypasses the cache)
//	HEAD   /api/v1/docs/{name}   cache freshness probe
//	DELETE /api/v1/cache/{name}  drop one cached package
//	DELETE /api/v1/cache         drop the whole cache
//	GET    /healthz              liveness probe
//
// Package names may contain a scope slash (@scope/name), so the routes use a
// wildcard segment rather than a single path parameter.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

// Service is the documentation service surface the server exposes.
// *fetcher.Service satisfies it.
type Service interface {
	GetDocumentation(ctx context.Context, name string, bypassCache bool) (*docs.Documentation, error)
	IsCached(ctx context.Context, name string) bool
	Invalidate(ctx context.Context, name string) error
	InvalidateAll(ctx context.Context) error
}

// Server is the HTTP front end over a documentation Service.
type Server struct {
	svc    Service
	logger *log.Logger
	http   *http.Server
}

// New builds a Server listening on addr.
func New(svc Service, addr string, logger *log.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/docs/*", s.handleGetDocs)
		r.Head("/docs/*", s.handleHeadDocs)
		r.Delete("/cache", s.handleClearCache)
		r.Delete("/cache/*", s.handleRemoveCached)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "http server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "http server shutdown failed")
	}
	return nil
}

// requestLogger tags each request with an ID and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDocs(w http.ResponseWriter, r *http.Request) {
	name, ok := packageName(w, r)
	if !ok {
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	doc, err := s.svc.GetDocumentation(r.Context(), name, refresh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleHeadDocs answers 200 when a valid cache entry exists and 404
// otherwise, without touching the registry.
func (s *Server) handleHeadDocs(w http.ResponseWriter, r *http.Request) {
	name, ok := packageName(w, r)
	if !ok {
		return
	}
	if s.svc.IsCached(r.Context(), name) {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) handleRemoveCached(w http.ResponseWriter, r *http.Request) {
	name, ok := packageName(w, r)
	if !ok {
		return
	}
	if err := s.svc.Invalidate(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": name})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.InvalidateAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// packageName extracts and validates the wildcard path segment. It writes
// the error response itself when the name is unusable.
func packageName(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "*")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	name = strings.TrimSuffix(name, "/")

	if err := pkgerrors.ValidateNpmPackageName(name); err != nil {
		writeError(w, err)
		return "", false
	}
	return name, true
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.GetCode(err)

	var status int
	switch code {
	case pkgerrors.ErrCodeInvalidPackage, pkgerrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case pkgerrors.ErrCodePackageNotFound, pkgerrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case pkgerrors.ErrCodeNetwork, pkgerrors.ErrCodeTimeout:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = pkgerrors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
