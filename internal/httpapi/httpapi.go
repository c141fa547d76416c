// Package httpapi exposes the engine operations over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/orbiseo/orbiseo"
	"github.com/orbiseo/orbiseo/codec"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Server wires the engine behind a chi router.
type Server struct {
	engine  *orbiseo.Engine
	logger  *orbiseo.Logger
	router  chi.Router
	started time.Time
}

// New creates the API server. A nil logger falls back to the default
// text logger.
func New(engine *orbiseo.Engine, logger *orbiseo.Logger) *Server {
	if logger == nil {
		logger = orbiseo.NewLogger(nil)
	}

	s := &Server{
		engine:  engine,
		logger:  logger,
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/semantic-search", s.handleSemanticSearch)
		r.Post("/expand-keywords", s.handleExpandKeywords)
		r.Post("/cluster-keywords", s.handleClusterKeywords)
		r.Post("/dataforseo/serp-analysis", s.handleSERPAnalysis)
	})

	return r
}

// requestID assigns a UUID to every request, preferring an inbound
// X-Request-ID so IDs survive proxies.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":    "OrbiSEO API",
		"version": Version,
		"status":  "operational",
		"features": []string{
			"Hybrid semantic keyword search",
			"Search intent classification",
			"Keyword clustering with LLM labels",
			"SERP competition analysis",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"indexed_record": s.engine.Index().Len(),
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.SemanticSearch(r.Context(), orbiseo.SearchRequest{
		Query:         req.Query,
		TopK:          req.TopK,
		MinSimilarity: req.MinSimilarity,
		IncludeIntent: req.IncludeIntent == nil || *req.IncludeIntent,
		Intent:        req.Intent,
		Cluster:       req.Cluster,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExpandKeywords(w http.ResponseWriter, r *http.Request) {
	var req expansionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ExpandKeywords(r.Context(), req.SeedKeyword, req.ExpansionCount)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClusterKeywords(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ClusterKeywords(r.Context(), req.Keywords, req.ClusterCount)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSERPAnalysis(w http.ResponseWriter, r *http.Request) {
	var req serpRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	analysis, err := s.engine.AnalyzeSERP(r.Context(), req.Keyword)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	defer body.Close()

	buf, err := io.ReadAll(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return false
	}

	if err := codec.Default.Unmarshal(buf, v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// writeEngineError maps engine errors to HTTP statuses: validation
// errors are 400, missing collaborators 503, everything else 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orbiseo.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, orbiseo.ErrNoEmbedder):
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := codec.Default.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
