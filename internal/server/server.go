// Package server exposes the analysis pipeline over a REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/indicators"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/orchestrator"
)

// Server wraps the HTTP server and the analysis pipeline.
type Server struct {
	config       *common.Config
	logger       *common.Logger
	orchestrator *orchestrator.Orchestrator
	market       interfaces.MarketDataSensor
	marketCtx    interfaces.ContextSensor
	news         interfaces.NewsAggregator
	fundamentals interfaces.FundamentalsSensor
	indicators   *indicators.Engine

	server  *http.Server
	started time.Time
}

// NewServer creates the REST API server over the wired pipeline.
func NewServer(
	config *common.Config,
	logger *common.Logger,
	orch *orchestrator.Orchestrator,
	market interfaces.MarketDataSensor,
	marketCtx interfaces.ContextSensor,
	news interfaces.NewsAggregator,
	fundamentals interfaces.FundamentalsSensor,
) *Server {
	s := &Server{
		config:       config,
		logger:       logger,
		orchestrator: orch,
		market:       market,
		marketCtx:    marketCtx,
		news:         news,
		fundamentals: fundamentals,
		indicators:   indicators.NewEngine(),
		started:      time.Now(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger, config, newIPLimiter(config.Limits.RateLimitPerMinute))

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)

	// Analysis
	mux.HandleFunc("/api/analysis/", s.handleAnalysis)
	mux.HandleFunc("/api/technical/", s.handleTechnical)
	mux.HandleFunc("/api/fundamental/", s.handleFundamental)
	mux.HandleFunc("/api/context/", s.handleContext)
	mux.HandleFunc("/api/news/", s.handleNews)
	mux.HandleFunc("/api/research/", s.handleResearch)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
