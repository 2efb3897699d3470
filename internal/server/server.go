// Package server exposes the voice-order HTTP API. It wires the processing
// pipeline, health checks, and the Prometheus scrape endpoint onto a chi
// router and owns the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/barriocredito/voxpedido/internal/health"
	"github.com/barriocredito/voxpedido/internal/observe"
	"github.com/barriocredito/voxpedido/internal/pipeline"
	"github.com/barriocredito/voxpedido/pkg/provider/stt"
)

// VoiceOrderProcessor is the narrow pipeline interface the HTTP layer depends
// on, so handler tests can substitute a stub.
type VoiceOrderProcessor interface {
	Process(ctx context.Context, audio stt.Audio) (*pipeline.Result, error)
}

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AllowedOrigins lists origins permitted by CORS. "*" allows any origin.
	AllowedOrigins []string

	// MaxUploadBytes caps the audio upload size. Default: 10 MiB.
	MaxUploadBytes int64

	// RequestTimeout bounds one voice-order request end to end, covering
	// both provider round-trips. Default: 60s.
	RequestTimeout time.Duration
}

const (
	defaultMaxUploadBytes = 10 << 20
	defaultRequestTimeout = 60 * time.Second
)

// Server is the HTTP front of the voice-order service.
type Server struct {
	processor VoiceOrderProcessor
	health    *health.Handler
	metrics   *observe.Metrics
	log       *slog.Logger
	cfg       Config
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithMetrics sets the metrics instance. Default: observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger. Default: slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New builds a Server over the given processor and health handler.
func New(processor VoiceOrderProcessor, healthHandler *health.Handler, cfg Config, opts ...Option) (*Server, error) {
	if processor == nil {
		return nil, errors.New("server: processor must not be nil")
	}
	if healthHandler == nil {
		return nil, errors.New("server: health handler must not be nil")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	s := &Server{
		processor: processor,
		health:    healthHandler,
		log:       slog.Default(),
		cfg:       cfg,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.log = s.log.With("component", "server")
	return s, nil
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	r.Use(observe.Middleware(s.metrics, s.log))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})

	r.Get("/healthz", s.health.Healthz)
	r.Get("/readyz", s.health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/orders/voice", s.handleVoiceOrder)
	})

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully with a
// 10 second drain window.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// corsMiddleware answers preflight requests and stamps allow headers for the
// configured origins.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, ok := allowed[origin]
				if allowAll || ok {
					if allowAll {
						w.Header().Set("Access-Control-Allow-Origin", "*")
					} else {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Set("Vary", "Origin")
					}
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
