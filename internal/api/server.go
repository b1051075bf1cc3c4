// Package api exposes the HTTP interface for the job-tracking service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobtrack-pipeline/internal/config"
	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
	"github.com/JakeFAU/jobtrack-pipeline/internal/metrics"
)

// Orchestrator is the subset of the pipeline the handlers need.
type Orchestrator interface {
	Scrape(ctx context.Context, req jobs.ScrapeRequest) (jobs.JobPosting, error)
	Enrich(ctx context.Context, req jobs.EnrichRequest) (jobs.Enrichment, error)
}

// Server wires HTTP handlers to the pipeline and job store.
type Server struct {
	router   chi.Router
	pipeline Orchestrator
	jobStore jobs.JobStore
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(pipeline Orchestrator, jobStore jobs.JobStore, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		pipeline: pipeline,
		jobStore: jobStore,
		cfg:      cfg,
		logger:   logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Use(ownerMiddleware)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/scrape", s.scrapeJob)
			r.Route("/{job_id}", func(r chi.Router) {
				r.Get("/", s.getJob)
				r.Post("/enrich", s.enrichJob)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeJobRequest struct {
	SourceURL    string `json:"source_url"`
	Organization string `json:"organization"`
	Position     string `json:"position"`
}

type enrichJobRequest struct {
	PDFURL string `json:"pdf_url"`
}

func (s *Server) scrapeJob(w http.ResponseWriter, r *http.Request) {
	var req scrapeJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "source_url required")
		return
	}
	job, err := s.pipeline.Scrape(r.Context(), jobs.ScrapeRequest{
		SourceURL:    req.SourceURL,
		Organization: req.Organization,
		Position:     req.Position,
		OwnerID:      ownerFromContext(r.Context()),
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": job})
}

func (s *Server) enrichJob(w http.ResponseWriter, r *http.Request) {
	var req enrichJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	enr, err := s.pipeline.Enrich(r.Context(), jobs.EnrichRequest{
		JobID:  chi.URLParam(r, "job_id"),
		PDFURL: req.PDFURL,
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "enrichment": enr})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobStore.GetJob(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

// writePipelineError maps the domain error taxonomy to HTTP statuses.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var (
		fetchErr  *jobs.FetchError
		enrichErr *jobs.EnrichmentError
	)
	switch {
	case errors.Is(err, jobs.ErrMissingArtifactURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobs.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.As(err, &fetchErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &enrichErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("pipeline call failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type requestIDKey struct{}

type ownerKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.status, elapsed)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
			)
		})
	}
}

// routePattern returns the chi route template so metrics labels stay
// low-cardinality even with ids in the path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ownerMiddleware requires the X-Owner-ID header on every /v1 route.
// Session handling lives in front of this service; the header carries
// the already-authenticated caller identity.
func ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get("X-Owner-ID")
		if owner == "" {
			writeError(w, http.StatusUnauthorized, "missing owner identity")
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
