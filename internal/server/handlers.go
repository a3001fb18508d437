package server

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/models"
)

// tickerPattern accepts exchange symbols with optional suffix, e.g. AAPL,
// BRK.B, RELIANCE.NS.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}(\.[A-Z]{1,4})?(-[A-Z])?$`)

var validModes = map[string]bool{
	"full":       true,
	"all":        true,
	"execution":  true,
	"intraday":   true,
	"swing":      true,
	"positional": true,
	"longterm":   true,
}

// parseTicker validates and canonicalizes the ticker path segment. A failed
// parse writes the 400 and returns false.
func parseTicker(w http.ResponseWriter, raw string) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" || !tickerPattern.MatchString(ticker) {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid ticker syntax", "BAD_TICKER")
		return "", false
	}
	return ticker, true
}

// writeSensorError maps the sensor error taxonomy onto HTTP statuses.
func (s *Server) writeSensorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrBadTicker):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "BAD_TICKER")
	case errors.Is(err, models.ErrTickerNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "TICKER_NOT_FOUND")
	case errors.Is(err, models.ErrLiquidityHalt):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "LIQUIDITY_HALT")
	case errors.Is(err, models.ErrProviderThrottled):
		WriteErrorWithCode(w, http.StatusTooManyRequests, err.Error(), "PROVIDER_THROTTLED")
	default:
		WriteErrorWithCode(w, http.StatusInternalServerError, err.Error(), "SENSOR_FAILURE")
	}
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        common.Version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

// handleAnalysis handles GET /api/analysis/{ticker}?mode=&force_ai=.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := parseTicker(w, PathParam(r, "/api/analysis/", ""))
	if !ok {
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "full"
	}
	if !validModes[mode] {
		WriteErrorWithCode(w, http.StatusBadRequest, "Unknown mode: "+mode, "BAD_MODE")
		return
	}
	forceAI := r.URL.Query().Get("force_ai") == "true"

	resp, err := s.orchestrator.Analyze(r.Context(), ticker, mode, forceAI)
	if err != nil {
		s.writeSensorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handleTechnical handles GET /api/technical/{ticker}?interval=.
func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := parseTicker(w, PathParam(r, "/api/technical/", ""))
	if !ok {
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	series, err := s.market.GetPriceHistory(r.Context(), ticker, interval)
	if err != nil {
		s.writeSensorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"ticker":     ticker,
		"interval":   interval,
		"technicals": s.indicators.Compute(series),
	})
}

// handleFundamental handles GET /api/fundamental/{ticker}.
func (s *Server) handleFundamental(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := parseTicker(w, PathParam(r, "/api/fundamental/", ""))
	if !ok {
		return
	}

	report, err := s.fundamentals.GetReport(r.Context(), ticker)
	if err != nil {
		s.writeSensorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleContext handles GET /api/context/{ticker}.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := parseTicker(w, PathParam(r, "/api/context/", ""))
	if !ok {
		return
	}

	mc, err := s.marketCtx.GetContext(r.Context(), ticker)
	if err != nil {
		s.writeSensorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, mc)
}

// handleNews handles GET /api/news/{ticker}.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := parseTicker(w, PathParam(r, "/api/news/", ""))
	if !ok {
		return
	}

	digest, err := s.news.GetDigest(r.Context(), ticker)
	if err != nil {
		s.writeSensorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, digest)
}

// handleResearch handles GET /api/research/{ticker}/report.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := parseTicker(w, PathParam(r, "/api/research/", "/report"))
	if !ok {
		return
	}

	report, err := s.orchestrator.ResearchReport(r.Context(), ticker)
	if err != nil {
		s.writeSensorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"report": report,
	})
}
