// Package server provides the HTTP API for the recipe converter.
//
// Endpoints:
//
//	GET  /health                 liveness
//	GET  /metrics                Prometheus metrics
//	GET  /v1/units               known unit names
//	GET  /v1/convert/unit        ?from=cup&to=tablespoon&multiplier=2
//	POST /v1/convert/line        {"text": "1 cup flour", "multiplier": 1}
//	POST /v1/convert/recipe      {"text": "1 cup flour\n2 oz butter"}
//	POST /v1/convert/batch       {"texts": ["...", "..."], "multiplier": 2}
//
// Every response carries an X-Request-ID header; an incoming one is reused.
// With Config.RateLimit set, requests over the limit get 429; /health and
// /metrics are never limited.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Errors for HTTP operations.
var (
	ErrServerClosed = fmt.Errorf("server closed")
)

// Converter is what the handlers need from recipe.Converter.
type Converter interface {
	ConvertLine(line string, multiplier float64) string
	ConvertRecipeContext(ctx context.Context, text string, multiplier float64) string
	ConvertRecipes(ctx context.Context, texts []string, multiplier float64) ([]string, error)
	ConvertUnitToUnit(from, to string, multiplier float64) float64
	Units() []string
}

// Config holds HTTP server configuration.
type Config struct {
	// Address to bind to (default: "127.0.0.1")
	Address string
	// Port to listen on (default: 8080). Zero picks a free port.
	Port int
	// ReadTimeout for requests
	ReadTimeout time.Duration
	// WriteTimeout for responses
	WriteTimeout time.Duration
	// IdleTimeout for keep-alive connections
	IdleTimeout time.Duration
	// MaxRequestSize in bytes (default: 1MB)
	MaxRequestSize int64
	// MaxBatchSize caps the number of recipes in one batch request
	MaxBatchSize int
	// DefaultMultiplier applies when a request gives none
	DefaultMultiplier float64
	// RateLimit is the sustained requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64
	// RateBurst is the number of requests allowed above RateLimit at once
	RateBurst int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:           "127.0.0.1",
		Port:              8080,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxRequestSize:    1 << 20,
		MaxBatchSize:      500,
		DefaultMultiplier: 1,
	}
}

// Server is the HTTP API server.
type Server struct {
	config *Config
	conv   Converter
	logger *slog.Logger
	router  *gin.Engine
	limiter *rate.Limiter

	httpServer *http.Server
	listener   net.Listener

	closed  atomic.Bool
	started time.Time
}

// New creates a server for conv. A nil config uses DefaultConfig and a nil
// logger uses slog.Default.
func New(conv Converter, config *Config, logger *slog.Logger) (*Server, error) {
	if conv == nil {
		return nil, fmt.Errorf("converter required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		conv:   conv,
		logger: logger,
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP connections. It returns once the listener
// is bound; serving happens in the background.
func (s *Server) Start() error {
	if s.closed.Load() {
		return ErrServerClosed
	}

	addr := net.JoinHostPort(s.config.Address, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.started = time.Now()
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server stopped", slog.Any("error", err))
		}
	}()

	s.logger.Info("http server listening", slog.String("addr", listener.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Uptime returns how long the server has been listening.
func (s *Server) Uptime() time.Duration {
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}
