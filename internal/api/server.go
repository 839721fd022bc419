package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/agora-ai/agora/internal/config"
	"github.com/agora-ai/agora/internal/events"
	"github.com/agora-ai/agora/internal/logging"
)

// Server serves the debate REST API and the SSE event stream.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        config.ServerConfig
	service    *DebateService
	bus        *events.EventBus
	logger     *logging.Logger

	requestTimeout  time.Duration
	shutdownTimeout time.Duration
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithEventBus enables the SSE stream.
func WithEventBus(bus *events.EventBus) ServerOption {
	return func(s *Server) { s.bus = bus }
}

// WithServerLogger sets the server logger.
func WithServerLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates the API server.
func NewServer(cfg config.ServerConfig, service *DebateService, opts ...ServerOption) *Server {
	s := &Server{
		cfg:             cfg,
		service:         service,
		logger:          logging.NewNop(),
		requestTimeout:  parseDurationOr(cfg.RequestTimeout, 5*time.Minute),
		shutdownTimeout: parseDurationOr(cfg.ShutdownTimeout, 10*time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	if len(s.cfg.CORSOrigins) > 0 {
		corsMiddleware := cors.New(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		})
		r.Use(corsMiddleware.Handler)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/debates", func(r chi.Router) {
			// Debate rounds block on model generation; the timeout must
			// cover a full model call, not a typical HTTP exchange.
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Post("/", s.handleCreateDebate)
			r.Get("/", s.handleListDebates)
			r.Route("/{debateID}", func(r chi.Router) {
				r.Get("/", s.handleGetDebate)
				r.Delete("/", s.handleDeleteDebate)
				r.Post("/rounds", s.handleAdvanceRound)
				r.Post("/finalize", s.handleFinalize)
			})
		})

		if s.bus != nil {
			r.Get("/events", NewSSEHandler(s.bus).ServeHTTP)
		}
	})

	return r
}

// loggingMiddleware logs each request through the sanitizing logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.logger.Info("starting http server", slog.String("addr", s.httpServer.Addr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
