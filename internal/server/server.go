// Package server exposes the grade analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
	"github.com/KaramelBytes/gradeboard/internal/config"
	"github.com/KaramelBytes/gradeboard/internal/parser"
	"github.com/KaramelBytes/gradeboard/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server wires the store, the analysis core and the HTTP routes.
type Server struct {
	cfg       *config.Global
	opts      analysis.Options
	parseOpts parser.Options
	store     *store.Store
	logger    *slog.Logger
	metrics   *Metrics
	limiter   *RateLimiter
	validate  *validator.Validate
}

// New builds a server from validated configuration.
func New(cfg *config.Global, st *store.Store, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.AnalysisOptions()
	if err != nil {
		return nil, err
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		cfg:       cfg,
		opts:      opts,
		parseOpts: cfg.ParserOptions(),
		store:     st,
		logger:    logger,
		metrics:   NewMetrics(),
		limiter:   NewRateLimiter(cfg.UploadRatePerMin, logger),
		validate:  v,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.Middleware)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Handler)
		r.Post("/upload", s.handleUpload)
		r.Post("/rows", s.handleRows)
	})

	r.Get("/analysis", s.handleAnalysis)
	r.Get("/personal-analysis/{studentId}", s.handlePersonal)
	r.Get("/class-analysis/{className}", s.handleClass)
	r.Get("/students", s.handleStudents)
	r.Post("/joint-analysis", s.handleJoint)
	r.Get("/suggestions", s.handleSuggestions)

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.handleDashboard)
		r.Get("/class/{className}", s.handleClassDashboard)
		r.Get("/student/{studentId}", s.handleStudentDashboard)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
