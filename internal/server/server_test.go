package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/governor"
	"github.com/bobmcallan/horizon/internal/models"
	"github.com/bobmcallan/horizon/internal/orchestrator"
	"github.com/bobmcallan/horizon/internal/risk"
	"github.com/bobmcallan/horizon/internal/trading"
)

var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

type stubMarket struct{ err error }

func (s *stubMarket) GetPriceHistory(_ context.Context, ticker, interval string) (*models.BarSeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	bars := make([]models.Bar, 120)
	price := 100.0
	for i := range bars {
		price += 0.3 + 0.5*math.Sin(float64(i)/4)
		bars[i] = models.Bar{
			Timestamp: testNow.AddDate(0, 0, i-120),
			Open:      price - 0.2, High: price + 0.6, Low: price - 0.6, Close: price,
			Volume: 1_000_000,
		}
	}
	return &models.BarSeries{Ticker: ticker, Interval: interval, Provider: "test", Bars: bars}, nil
}

type stubContext struct{}

func (s *stubContext) GetContext(_ context.Context, ticker string) (*models.MarketContext, error) {
	return &models.MarketContext{Ticker: ticker, FetchedAt: testNow}, nil
}

type stubNews struct{}

func (s *stubNews) GetDigest(_ context.Context, ticker string) (*models.NewsDigest, error) {
	return &models.NewsDigest{Ticker: ticker, Headlines: []models.Headline{}}, nil
}

type stubFundamentals struct{}

func (s *stubFundamentals) GetReport(_ context.Context, _ string) (*models.FundamentalsReport, error) {
	return &models.FundamentalsReport{Data: &models.FundamentalData{}}, nil
}

func newTestServer(t *testing.T, mutate func(*common.Config)) *Server {
	t.Helper()

	config := common.NewDefaultConfig()
	if mutate != nil {
		mutate(config)
	}
	logger := common.NewSilentLogger()

	market := &stubMarket{}
	marketCtx := &stubContext{}
	news := &stubNews{}
	fundamentals := &stubFundamentals{}

	gov := governor.NewWithClock(func() time.Time { return testNow })
	orch := orchestrator.New(market, marketCtx, news, fundamentals,
		trading.NewSystem(gov, risk.NewEngine()), gov, logger)

	return NewServer(config, logger, orch, market, marketCtx, news, fundamentals)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "uptime_seconds")
}

func TestHandleAnalysis(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/AAPL?mode=swing", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Meta.Ticker)
	assert.NotEmpty(t, resp.Meta.AnalysisID)
	assert.Contains(t, resp.Decisions, "swing")
}

func TestHandleAnalysisBadTicker(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{
		"/api/analysis/not%20a%20ticker",
		"/api/analysis/TOOLONGTICKERNAME",
		"/api/analysis/$AAPL",
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHandleAnalysisLowercaseTickerCanonicalized(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/aapl?mode=swing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Meta.Ticker)
}

func TestHandleAnalysisAllMode(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/AAPL?mode=all", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Decisions, 4, "all analyzes every horizon")
}

func TestHandleAnalysisBadMode(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/AAPL?mode=nonsense", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalysisMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analysis/AAPL", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestHandleTechnical(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/technical/AAPL?interval=1h", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, "1h", body["interval"])
	assert.Contains(t, body, "technicals")
}

func TestSensorErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrTickerNotFound, http.StatusNotFound},
		{models.ErrLiquidityHalt, http.StatusUnprocessableEntity},
		{models.ErrProviderThrottled, http.StatusTooManyRequests},
		{models.ErrSensorFailure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s := newTestServer(t, nil)
		s.market = &stubMarket{err: tc.err}

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/technical/AAPL", nil))
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *common.Config) { c.APIKey = "secret" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news/AAPL", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/news/AAPL", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *common.Config) { c.Limits.RateLimitPerMinute = 2 })

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/news/AAPL", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		s.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// A different client is unaffected.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/news/AAPL", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCorrelationIDHeader(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Correlation-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/analysis/AAPL", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPathParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/research/AAPL/report", nil)
	assert.Equal(t, "AAPL", PathParam(r, "/api/research/", "/report"))

	r = httptest.NewRequest(http.MethodGet, "/api/analysis/BRK.B", nil)
	assert.Equal(t, "BRK.B", PathParam(r, "/api/analysis/", ""))
}
