// Package server exposes the signal pipeline over HTTP: health/status,
// recent signals, the paper-trading portfolio, recent backtests, risk
// alerts, and the tunable settings (spec §4.4's scheduler produces the
// signals, trades and alerts read here). Its only writes are settings
// updates, alert acknowledgements and the manual scan trigger.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/database/repositories"
	"github.com/samhoi-x/compass/internal/paper"
	"github.com/samhoi-x/compass/internal/scheduler"
)

// Config holds everything the HTTP server needs to answer requests.
type Config struct {
	Port    int
	Log     zerolog.Logger
	DevMode bool

	Signals   *repositories.SignalRepository
	Prices    *repositories.PriceBarRepository
	Alerts    *repositories.RiskAlertRepository
	Settings  *repositories.SettingRepository
	Backtests *repositories.BacktestRepository
	Positions *repositories.PaperPositionRepository
	Trades    *repositories.PaperTradeRepository

	Paper     *paper.Engine
	Scheduler *scheduler.Scheduler
}

// Server is the chi-routed HTTP API.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New builds a Server with its middleware and routes wired, ready for Start.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
			r.Post("/scan/run", s.handleTriggerScan)
		})

		r.Route("/signals", func(r chi.Router) {
			r.Get("/", s.handleRecentSignals)
			r.Get("/accuracy", s.handleSignalAccuracy)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", s.handleOpenPositions)
			r.Get("/summary", s.handlePortfolioSummary)
			r.Get("/trades", s.handleRecentTrades)
		})

		r.Route("/backtests", func(r chi.Router) {
			r.Get("/", s.handleRecentBacktests)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleUnacknowledgedAlerts)
			r.Post("/{id}/ack", s.handleAcknowledgeAlert)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleAllSettings)
			r.Get("/{name}", s.handleGetSetting)
			r.Put("/{name}", s.handlePutSetting)
		})
	})
}

// loggingMiddleware mirrors every completed request's method/path/
// status/duration, the same shape the teacher logs every HTTP request in.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Start begins serving and blocks until the server stops or errors.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
