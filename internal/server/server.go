// Package server exposes the palette pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatch/internal/summary"
	"github.com/jmylchreest/swatch/internal/version"
)

// Parameter bounds applied to every request before it reaches the pipeline.
const (
	MinK       = 3
	MaxK       = 12
	MinMaxSide = 128
	MaxMaxSide = 2048
)

// Config holds HTTP service settings.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	Workers         int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	DefaultK        int
	DefaultMaxSide  int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8000",
		AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		MaxUploadBytes:  32 << 20,
		Workers:         runtime.NumCPU(),
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DefaultK:        summary.DefaultK,
		DefaultMaxSide:  summary.DefaultMaxSide,
	}
}

// Summarizer produces a palette from encoded image bytes.
type Summarizer interface {
	Summarize(ctx context.Context, data []byte, opts summary.Options) (*summary.Summary, error)
}

// Server serves palette requests.
type Server struct {
	config     Config
	summarizer Summarizer
	logger     hclog.Logger
	slots      chan struct{}
	httpServer *http.Server
}

// New creates a Server. A nil logger discards output.
func New(config Config, summarizer Summarizer, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if config.Workers < 1 {
		config.Workers = runtime.NumCPU()
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		config:     config,
		summarizer: summarizer,
		logger:     logger,
		slots:      make(chan struct{}, config.Workers),
	}
	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.WriteTimeout,
		ErrorLog:          logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}
	return s
}

// Handler returns the HTTP handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.logRequests(corsMiddleware(s.config.AllowedOrigins, mux))
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("listening", "addr", l.Addr().String(), "workers", s.config.Workers)
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}

// acquire takes a worker slot, giving up when ctx is done.
func (s *Server) acquire(ctx context.Context) (release func(), err error) {
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Short(),
	})
}
