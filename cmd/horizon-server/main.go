package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/horizon/internal/cache"
	"github.com/bobmcallan/horizon/internal/clients/finnhub"
	"github.com/bobmcallan/horizon/internal/clients/gemini"
	"github.com/bobmcallan/horizon/internal/clients/newsapi"
	"github.com/bobmcallan/horizon/internal/clients/polygon"
	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/governor"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/orchestrator"
	"github.com/bobmcallan/horizon/internal/risk"
	"github.com/bobmcallan/horizon/internal/sensors"
	"github.com/bobmcallan/horizon/internal/server"
	"github.com/bobmcallan/horizon/internal/trading"
)

func main() {
	configPath := os.Getenv("HORIZON_CONFIG")
	if configPath == "" {
		configPath = "horizon.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(config.Logging.Level)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", config.Environment).
		Msg("Starting horizon")

	store := buildCache(config, logger)
	defer store.Close()

	// Provider chain: finnhub primary, polygon failover when configured.
	fh := finnhub.NewClient(config.Clients.Finnhub.APIKey,
		finnhub.WithBaseURL(config.Clients.Finnhub.BaseURL),
		finnhub.WithRateLimit(config.Clients.Finnhub.RateLimit),
		finnhub.WithTimeout(config.Clients.Finnhub.GetTimeout()),
		finnhub.WithLogger(logger),
	)

	providers := []interfaces.DataProvider{fh}
	if config.Clients.Polygon.APIKey != "" {
		providers = append(providers, polygon.NewClient(config.Clients.Polygon.APIKey,
			polygon.WithBaseURL(config.Clients.Polygon.BaseURL),
			polygon.WithRateLimit(config.Clients.Polygon.RateLimit),
			polygon.WithLogger(logger),
		))
	}

	newsSources := []interfaces.NewsSource{fh}
	if config.Clients.NewsAPI.APIKey != "" {
		newsSources = append(newsSources, newsapi.NewClient(config.Clients.NewsAPI.APIKey,
			newsapi.WithBaseURL(config.Clients.NewsAPI.BaseURL),
			newsapi.WithLogger(logger),
		))
	}

	market := sensors.NewMarketDataSensor(providers, store, logger)
	marketCtx := sensors.NewContextSensor(fh, store, logger)
	news := sensors.NewNewsAggregator(newsSources, store, logger)
	fundamentals := sensors.NewFundamentalsSensor(fh, store, logger)

	gov := governor.New()
	tradingSystem := trading.NewSystem(gov, risk.NewEngine())

	var orchOpts []orchestrator.Option
	if config.Clients.Gemini.APIKey != "" {
		gm, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("gemini unavailable, narratives fall back to the deterministic template")
		} else {
			orchOpts = append(orchOpts, orchestrator.WithNarrativeClient(gm))
		}
	} else {
		logger.Info().Msg("No gemini key configured, narratives are deterministic")
	}

	orch := orchestrator.New(market, marketCtx, news, fundamentals, tradingSystem, gov, logger, orchOpts...)

	srv := server.NewServer(config, logger, orch, market, marketCtx, news, fundamentals)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", config.Server.Port)).
		Msg("Server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

// buildCache picks the redis backend when configured, memory otherwise.
func buildCache(config *common.Config, logger *common.Logger) interfaces.Cache {
	if !config.Redis.Configured() {
		logger.Info().Msg("No redis configured, using in-memory cache")
		return cache.NewMemoryCache()
	}
	if config.Redis.URL != "" {
		return cache.NewRedisCacheFromURL(config.Redis.URL, logger)
	}
	return cache.NewRedisCache(config.Redis.Addr(), config.Redis.Password, config.Redis.DB, logger)
}
