// Package alphavantage provides a client for the AlphaVantage GLOBAL_QUOTE API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second

	SourceName      = "AlphaVantage"
	IndiaSourceName = "AlphaVantage India"
)

// Client implements QuoteSource against AlphaVantage
type Client struct {
	baseURL     string
	apiKey      string
	name        string
	reliability float64
	currency    string
	suffix      string // exchange suffix appended to the base symbol, e.g. ".NSE"
	httpClient  *http.Client
	logger      *common.Logger
	limiter     *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a US AlphaVantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		name:        SourceName,
		reliability: 0.75,
		currency:    "USD",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewIndiaClient creates the tertiary INDIAN source, which queries the
// NSE listing of a symbol as "{base}.NSE" and reports INR prices.
func NewIndiaClient(apiKey string, opts ...ClientOption) *Client {
	c := NewClient(apiKey, opts...)
	c.name = IndiaSourceName
	c.reliability = 0.80
	c.currency = "INR"
	c.suffix = ".NSE"
	return c
}

// Name returns the source name
func (c *Client) Name() string { return c.name }

// Reliability returns the static source weight
func (c *Client) Reliability() float64 { return c.reliability }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AlphaVantage API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// querySymbol maps an input ticker onto the symbol AlphaVantage expects
func (c *Client) querySymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if c.suffix == "" {
		return symbol
	}
	base := strings.TrimSuffix(strings.TrimSuffix(symbol, ".NS"), ".BO")
	return base + c.suffix
}

// FetchQuote retrieves a GLOBAL_QUOTE snapshot
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	query := c.querySymbol(symbol)
	if c.apiKey == "" {
		return nil, &models.FetchError{Source: c.name, Symbol: query, Kind: models.FetchConfig, Err: fmt.Errorf("api key not configured")}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.TransportError(c.name, query, fmt.Errorf("rate limit wait: %w", err))
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", query)
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.TransportError(c.name, query, fmt.Errorf("failed to create request: %w", err))
	}

	c.logger.Debug().Str("symbol", query).Str("source", c.name).Msg("AlphaVantage API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", query).Dur("elapsed", elapsed).Msg("AlphaVantage API request failed")
		return nil, models.TransportError(c.name, query, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Str("symbol", query).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("AlphaVantage API non-OK response")
		return nil, &models.FetchError{
			Source:     c.name,
			Symbol:     query,
			Kind:       models.FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: "/query"},
		}
	}

	var payload models.AlphaVantageQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &models.FetchError{Source: c.name, Symbol: query, Kind: models.FetchDecode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	// Rate limited and invalid-call responses still come back as 200
	if notice := firstNonEmpty(payload.Note, payload.Information, payload.ErrorMessage); notice != "" {
		c.logger.Warn().Str("symbol", query).Str("notice", notice).Msg("AlphaVantage API notice")
		return nil, &models.FetchError{
			Source:     c.name,
			Symbol:     query,
			Kind:       models.FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        &APIError{StatusCode: resp.StatusCode, Message: notice, Endpoint: "/query"},
		}
	}

	quote, err := payload.GlobalQuote.ToQuote(c.currency)
	if err != nil {
		return nil, &models.FetchError{Source: c.name, Symbol: query, Kind: models.FetchMissing, Err: err}
	}

	c.logger.Info().Str("symbol", query).Float64("price", models.Value(quote.Price)).Dur("elapsed", elapsed).Msg("AlphaVantage API call")
	return quote, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Ensure Client implements QuoteSource
var _ interfaces.QuoteSource = (*Client)(nil)
