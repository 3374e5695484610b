// Package common provides shared utilities for ClearStock
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for ClearStock
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Market      MarketConfig    `toml:"market"`
	Clients     ClientsConfig   `toml:"clients"`
	Cache       CacheConfig     `toml:"cache"`
	Storage     StorageConfig   `toml:"storage"`
	Digest      DigestConfig    `toml:"digest"`
	RateLimit   RateLimitConfig `toml:"ratelimit"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	AudioDir       string `toml:"audio_dir"`       // where generated story mp3 files are written
	EnableShutdown bool   `toml:"enable_shutdown"` // expose POST /api/shutdown to loopback callers
}

// MarketConfig controls market classification and portfolio throttling.
type MarketConfig struct {
	DefaultMarket  string `toml:"default_market"`  // "US" or "INDIAN" for symbols no rule matches
	HoldingDelay   string `toml:"holding_delay"`   // fixed pause between portfolio holdings
	IndianTertiary bool   `toml:"indian_tertiary"` // query AlphaVantage with .NSE suffix for INDIAN symbols
}

// GetHoldingDelay parses and returns the inter-holding delay
func (c *MarketConfig) GetHoldingDelay() time.Duration {
	d, err := time.ParseDuration(c.HoldingDelay)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
	Finnhub      FinnhubConfig      `toml:"finnhub"`
	Yahoo        ProviderConfig     `toml:"yahoo"`
	NSE          NSEConfig          `toml:"nse"`
	GoogleNews   ProviderConfig     `toml:"googlenews"`
	Gemini       GeminiConfig       `toml:"gemini"`
	Claude       ClaudeConfig       `toml:"claude"`
	ElevenLabs   ElevenLabsConfig   `toml:"elevenlabs"`
	Narrative    NarrativeConfig    `toml:"narrative"`
}

// ProviderConfig holds the settings shared by keyless quote and news providers
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 15*time.Second)
}

// AlphaVantageConfig holds AlphaVantage API configuration
type AlphaVantageConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 15*time.Second)
}

// FinnhubConfig holds Finnhub API configuration
type FinnhubConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FinnhubConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 15*time.Second)
}

// NSEConfig holds NSE India configuration
type NSEConfig struct {
	BaseURL      string `toml:"base_url"`
	HomeURL      string `toml:"home_url"`
	Timeout      string `toml:"timeout"`       // quote call timeout
	InitAttempts int    `toml:"init_attempts"` // homepage bootstrap attempts
	InitDelay    string `toml:"init_delay"`    // constant delay between bootstrap attempts
}

// GetTimeout parses and returns the quote timeout
func (c *NSEConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 5*time.Second)
}

// GetInitDelay parses and returns the bootstrap retry delay
func (c *NSEConfig) GetInitDelay() time.Duration {
	return parseTimeout(c.InitDelay, 2*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	VisionModel string `toml:"vision_model"`
}

// ClaudeConfig holds Anthropic API configuration for the fallback narrative provider
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// ElevenLabsConfig holds text-to-speech configuration
type ElevenLabsConfig struct {
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key"`
	VoiceID         string  `toml:"voice_id"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	Timeout         string  `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ElevenLabsConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 60*time.Second)
}

// NarrativeConfig selects the LLM used for free-text analysis
type NarrativeConfig struct {
	Provider string `toml:"provider"` // "gemini" or "claude"
}

// CacheConfig holds the quote cache configuration
type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
	TTL      string `toml:"ttl"`
}

// GetTTL parses and returns the cache entry lifetime
func (c *CacheConfig) GetTTL() time.Duration {
	return parseTimeout(c.TTL, 5*time.Minute)
}

// StorageConfig selects and configures the subscription store
type StorageConfig struct {
	Backend   string          `toml:"backend"` // "surrealdb", "postgres" or "badger"
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Badger    BadgerConfig    `toml:"badger"`
}

// SurrealDBConfig holds SurrealDB connection settings
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// BadgerConfig holds the embedded subscription store location
type BadgerConfig struct {
	Path string `toml:"path"`
}

// Address returns a display form of the configured store, without credentials
func (c *StorageConfig) Address() string {
	switch c.Backend {
	case "postgres":
		return "postgres"
	case "badger":
		return c.Badger.Path
	}
	return c.SurrealDB.Address
}

// DigestConfig holds the daily subscriber digest configuration
type DigestConfig struct {
	Enabled      bool       `toml:"enabled"`
	Schedule     string     `toml:"schedule"` // cron expression with seconds field
	AdminTrigger bool       `toml:"admin_trigger"`
	PublicURL    string     `toml:"public_url"` // base URL used for unsubscribe links
	TokenSecret  string     `toml:"token_secret"`
	TokenExpiry  string     `toml:"token_expiry"`
	SMTP         SMTPConfig `toml:"smtp"`
}

// GetTokenExpiry parses and returns the unsubscribe token lifetime
func (c *DigestConfig) GetTokenExpiry() time.Duration {
	return parseTimeout(c.TokenExpiry, 30*24*time.Hour)
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
}

// IsConfigured reports whether enough SMTP settings are present to send mail
func (c *SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// RateLimitConfig holds the per-client API rate limit
type RateLimitConfig struct {
	Requests       int      `toml:"requests"`
	Window         string   `toml:"window"`
	TrustedProxies []string `toml:"trusted_proxies"` // peers allowed to set X-Forwarded-For
}

// GetWindow parses and returns the rate limit window
func (c *RateLimitConfig) GetWindow() time.Duration {
	return parseTimeout(c.Window, 15*time.Minute)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     3000,
			AudioDir: "public/audio",
		},
		Market: MarketConfig{
			DefaultMarket:  "US",
			HoldingDelay:   "200ms",
			IndianTertiary: true,
		},
		Clients: ClientsConfig{
			AlphaVantage: AlphaVantageConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 5,
				Timeout:   "15s",
			},
			Finnhub: FinnhubConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 30,
				Timeout:   "15s",
			},
			Yahoo: ProviderConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "15s",
			},
			NSE: NSEConfig{
				BaseURL:      "https://www.nseindia.com",
				HomeURL:      "https://www.nseindia.com",
				Timeout:      "5s",
				InitAttempts: 3,
				InitDelay:    "2s",
			},
			GoogleNews: ProviderConfig{
				BaseURL:   "https://news.google.com",
				RateLimit: 2,
				Timeout:   "15s",
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				VisionModel: "gemini-2.5-flash",
			},
			Claude: ClaudeConfig{
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 4096,
			},
			ElevenLabs: ElevenLabsConfig{
				BaseURL:         "https://api.elevenlabs.io",
				VoiceID:         "EXAVITQu4vr4xnSDxMaL",
				Stability:       0.25,
				SimilarityBoost: 0.8,
				Timeout:         "60s",
			},
			Narrative: NarrativeConfig{
				Provider: "gemini",
			},
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "data/cache",
			TTL:     "5m",
		},
		Storage: StorageConfig{
			Backend: "surrealdb",
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Username:  "root",
				Password:  "root",
				Namespace: "clearstock",
				Database:  "stockanalysis",
			},
			Badger: BadgerConfig{
				Path: "data/subscriptions",
			},
		},
		Digest: DigestConfig{
			Schedule:    "0 30 7 * * *",
			PublicURL:   "http://localhost:3000",
			TokenSecret: "dev-unsubscribe-secret-change-in-production",
			TokenExpiry: "720h",
			SMTP: SMTPConfig{
				Port:     587,
				FromName: "ClearStock Report Engine",
			},
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   "15m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
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
	normalizeMarket(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := firstEnv("CLEARSTOCK_ENV", "NODE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CLEARSTOCK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := firstEnv("CLEARSTOCK_PORT", "PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("CLEARSTOCK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := firstEnv("ALPHA_VANTAGE_API_KEY", "ALPHA_VANTAGE_KEY"); v != "" {
		config.Clients.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		config.Clients.Finnhub.APIKey = v
	}
	if v := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Clients.Claude.APIKey = v
	}
	if v := firstEnv("ELEVEN_API_KEY", "ELEVENLABS_API_KEY"); v != "" {
		config.Clients.ElevenLabs.APIKey = v
	}

	if v := os.Getenv("SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.Backend = "postgres"
		config.Storage.Postgres.DSN = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		config.Digest.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Digest.SMTP.Port = p
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		config.Digest.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		config.Digest.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		config.Digest.SMTP.From = v
	}
	if v := os.Getenv("UNSUBSCRIBE_SECRET"); v != "" {
		config.Digest.TokenSecret = v
	}
}

// normalizeMarket upper-cases the default market and falls back to US for unknown values.
func normalizeMarket(config *Config) {
	m := strings.ToUpper(strings.TrimSpace(config.Market.DefaultMarket))
	if m != "US" && m != "INDIAN" {
		m = "US"
	}
	config.Market.DefaultMarket = m
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
