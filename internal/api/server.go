// Package api exposes the prediction service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// maxBodyBytes caps the /predict request body.
const maxBodyBytes = 1 << 20

// Predictor is the prediction use case the server delegates to.
type Predictor interface {
	Predict(ctx context.Context, req domain.SequenceRequest) (domain.PredictionResult, error)
}

// Options configures the HTTP server.
type Options struct {
	Port         int
	CORSOrigin   string
	Metrics      bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server routes requests to the prediction service.
type Server struct {
	predictor  Predictor
	routes     map[string]map[string]http.Handler
	corsOrigin string
	server     *http.Server
	addr       string
	log        *slog.Logger
}

// NewServer creates a new API server.
func NewServer(predictor Predictor, opts Options) *Server {
	s := &Server{
		predictor:  predictor,
		routes:     make(map[string]map[string]http.Handler),
		corsOrigin: opts.CORSOrigin,
		log:        slog.Default().With("component", "api"),
	}

	s.handle(http.MethodGet, "/", http.HandlerFunc(s.handleRoot))
	s.handle(http.MethodPost, "/predict", http.HandlerFunc(s.handlePredict))
	if opts.Metrics {
		s.handle(http.MethodGet, "/metrics", promhttp.Handler())
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Handler(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

func (s *Server) handle(method, path string, h http.Handler) {
	if s.routes[path] == nil {
		s.routes[path] = make(map[string]http.Handler)
	}
	s.routes[path][method] = h
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.withAccessLog(s.withRecover(http.HandlerFunc(s.dispatch))))
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.addr = ln.Addr().String()
	s.log.Info("API server listening", "addr", s.addr)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("API server failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	return s.addr
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	methods, ok := s.routes[r.URL.Path]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgRouteNotFound})
		return
	}

	if s.corsOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", s.allowed(methods))
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	h, ok := methods[r.Method]
	if !ok {
		w.Header().Set("Allow", s.allowed(methods))
		writeJSON(w, http.StatusMethodNotAllowed, methodNotAllowed(r.Method))
		return
	}
	h.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msgRunning})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req domain.SequenceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.log.Debug("Rejected request body", "request_id", domain.RequestIDFrom(r.Context()), "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	// Context propagation lets a disconnecting client abandon pending retries.
	result, err := s.predictor.Predict(r.Context(), req)
	status, body := buildPredictionResponse(result, err)
	writeJSON(w, status, body)
}

func (s *Server) allowed(methods map[string]http.Handler) string {
	names := make([]string, 0, len(methods)+1)
	for m := range methods {
		names = append(names, m)
	}
	if s.corsOrigin != "" {
		names = append(names, http.MethodOptions)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
