// Package server exposes scene solving over HTTP. Documents are posted as
// JSON (or YAML with a yaml content type) and results come back as JSON.
// Prometheus metrics are served from /metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chazu/jig/internal/logging"
	"github.com/chazu/jig/pkg/assemble"
	"github.com/chazu/jig/pkg/config"
	"github.com/chazu/jig/pkg/engine"
	"github.com/chazu/jig/pkg/graph"
	"github.com/chazu/jig/pkg/kernel"
	"github.com/chazu/jig/pkg/kernel/sdfx"
	"github.com/chazu/jig/pkg/shape"
)

// shutdownGrace is how long Run waits for in-flight requests on shutdown.
const shutdownGrace = 5 * time.Second

// Server handles the jig HTTP API.
type Server struct {
	cfg       config.ServerConfig
	kernel    kernel.Kernel
	library   *shape.Library
	assembler *assemble.Assembler
	registry  *prometheus.Registry
	metrics   *Metrics
	log       *slog.Logger

	// zygomys sandboxes share global state, so evaluations run one at a
	// time on a single engine.
	evalMu sync.Mutex
	engine *engine.Engine
}

// New builds a server from cfg. A nil logger discards output.
func New(cfg *config.Config, log *slog.Logger) *Server {
	log = logging.OrNop(log)
	k := sdfx.New()
	lib := shape.NewLibrary(k)
	reg := prometheus.NewRegistry()
	eng := engine.NewEngine()
	eng.Timeout = cfg.Engine.Timeout
	return &Server{
		cfg:       cfg.Server,
		kernel:    k,
		library:   lib,
		assembler: assemble.New(lib, cfg.Solver, log),
		registry:  reg,
		metrics:   NewMetrics(reg),
		log:       log,
		engine:    eng,
	}
}

// Registry returns the registry the server's metrics live in.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequestSize(s.cfg.MaxBodyBytes))
		r.Post("/solve", s.handleSolve)
		r.Post("/validate", s.handleValidate)
		r.Post("/frames", s.handleFrames)
		r.Post("/evaluate", s.handleEvaluate)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("starting jig server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		s.log.Info("shutting down jig server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode failed", "err", err)
	}
}

// writeError reports err with one detail line per member of an aggregate.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	for _, e := range graph.Errors(err) {
		resp.Details = append(resp.Details, e.Error())
	}
	s.writeJSON(w, status, resp)
}

// readBody reads the request body, reporting an oversized body as 413.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return nil, false
	}
	return body, true
}

// requestFormat picks the document format from the Content-Type header.
func requestFormat(r *http.Request) graph.Format {
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return graph.FormatYAML
	}
	return graph.FormatJSON
}

// build assembles g and records the outcome.
func (s *Server) build(ctx context.Context, g *graph.Graph) (*assemble.Assembly, error) {
	start := time.Now()
	as, err := s.assembler.Build(ctx, g)
	s.metrics.observeBuild(time.Since(start).Seconds(), as != nil && as.Fallback, err)
	return as, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
