// Package common provides shared utilities for Horizon
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Horizon
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Redis       RedisConfig   `toml:"redis"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
	Limits      LimitsConfig  `toml:"limits"`
	APIKey      string        `toml:"api_key"`    // optional inbound API key; empty disables auth
	SentryDSN   string        `toml:"sentry_dsn"` // forwarded to the error tracker when wired
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// RedisConfig holds distributed cache configuration.
// URL takes precedence over the discrete host/port fields.
type RedisConfig struct {
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	DB       int    `toml:"db"`
	Password string `toml:"password"`
}

// Addr returns the host:port address for the discrete-field form.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Configured reports whether any redis backend has been configured.
func (c *RedisConfig) Configured() bool {
	return c.URL != "" || c.Host != ""
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Finnhub ProviderConfig `toml:"finnhub"`
	Polygon ProviderConfig `toml:"polygon"`
	NewsAPI ProviderConfig `toml:"newsapi"`
	Gemini  GeminiConfig   `toml:"gemini"`
}

// ProviderConfig holds configuration for an upstream data provider
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LimitsConfig holds request limits and cache TTLs
type LimitsConfig struct {
	RateLimitPerMinute int `toml:"rate_limit_per_minute"` // inbound per-IP window
	DataCacheTTL       int `toml:"data_cache_ttl"`        // seconds, slow-moving data
}

// SensorCacheTTL is the TTL for bar series and market context cache entries.
const SensorCacheTTL = 5 * time.Minute

// DataCacheTTL returns the configured slow-data TTL as a duration.
func (c *LimitsConfig) CacheTTL() time.Duration {
	if c.DataCacheTTL <= 0 {
		return time.Hour
	}
	return time.Duration(c.DataCacheTTL) * time.Second
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Redis: RedisConfig{
			Port: 6379,
		},
		Clients: ClientsConfig{
			Finnhub: ProviderConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Polygon: ProviderConfig{
				BaseURL:   "https://api.polygon.io",
				RateLimit: 5,
				Timeout:   "30s",
			},
			NewsAPI: ProviderConfig{
				BaseURL:   "https://newsapi.org/v2",
				RateLimit: 5,
				Timeout:   "15s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Limits: LimitsConfig{
			RateLimitPerMinute: 100,
			DataCacheTTL:       3600,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("HORIZON_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("HORIZON_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("HORIZON_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Provider keys
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		config.Clients.Finnhub.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		config.Clients.Polygon.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		config.Clients.NewsAPI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		config.APIKey = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		config.SentryDSN = v
	}

	// Redis: URL wins over discrete fields
	if v := os.Getenv("REDIS_URL"); v != "" {
		config.Redis.URL = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		config.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Redis.Port = p
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			config.Redis.DB = db
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Redis.Password = v
	}

	// Limits
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Limits.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("DATA_CACHE_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Limits.DataCacheTTL = n
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
