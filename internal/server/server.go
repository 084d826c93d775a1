// Package server exposes title search over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

// maxBodyBytes bounds the POST /run request body.
const maxBodyBytes = 64 << 10

// Searcher resolves wire names and runs a search. search.Service implements it.
type Searcher interface {
	SearchNamed(ctx context.Context, collection, language, raw string) ([]uint64, error)
}

// StatusFunc reports the current service status.
type StatusFunc func() Status

// ReadyFunc reports whether the first rebuild pass has completed.
type ReadyFunc func() bool

// Options configures the HTTP server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RateLimit is the sustained requests/second for POST /run; 0 disables.
	RateLimit float64
	RateBurst int
}

// Server serves the search endpoints.
type Server struct {
	opts     Options
	searcher Searcher
	status   StatusFunc
	ready    ReadyFunc
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server. status and ready may be nil.
func NewServer(searcher Searcher, status StatusFunc, ready ReadyFunc, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:     opts,
		searcher: searcher,
		status:   status,
		ready:    ready,
		logger:   logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /run", withRateLimit(s.limiter, http.HandlerFunc(s.handleSearch)))
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return withRequestID(withAccessLog(s.logger, mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the shutdown timeout. A clean shutdown returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.Info("server listening", slog.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Addr returns the bound address once serving, or "" before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("request body is empty")
		}
		writeError(w, r, serrors.ValidationError("invalid request body", err))
		return
	}

	language := r.Header.Get(LanguageHeader)
	if language == "" {
		language = DefaultLanguage
	}

	ids, err := s.searcher.SearchNamed(r.Context(), req.Type, language, req.Keyword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusOK, Status{})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.ready == nil || s.ready()
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Ready: ready})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, serrors.HTTPStatus(err), ErrorResponse{
		Error:     serrors.ToBody(err),
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
