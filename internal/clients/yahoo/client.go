// Package yahoo provides a client for the Yahoo Finance v8 chart API
package yahoo

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
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second

	SourceName = "Yahoo Finance India"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client implements QuoteSource against the Yahoo chart endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

// NewClient creates a new Yahoo Finance client.
// No API key is required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// Name returns the source name
func (c *Client) Name() string { return SourceName }

// Reliability returns the static source weight
func (c *Client) Reliability() float64 { return 0.88 }

// FetchQuote retrieves the latest daily chart bar for symbol, e.g. "RELIANCE.NS"
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.TransportError(SourceName, symbol, fmt.Errorf("rate limit wait: %w", err))
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.TransportError(SourceName, symbol, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("Yahoo chart request failed")
		return nil, models.TransportError(SourceName, symbol, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Str("symbol", symbol).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Yahoo chart non-OK response")
		return nil, &models.FetchError{
			Source:     SourceName,
			Symbol:     symbol,
			Kind:       models.FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("yahoo chart error: %s", strings.TrimSpace(string(body))),
		}
	}

	var payload models.YahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchDecode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	quote, err := payload.ToQuote(symbol)
	if err != nil {
		if payload.Chart.Error != nil {
			err = fmt.Errorf("%w: %s", err, payload.Chart.Error.Description)
		}
		return nil, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchMissing, Err: err}
	}

	c.logger.Info().Str("symbol", symbol).Float64("price", models.Value(quote.Price)).Dur("elapsed", elapsed).Msg("Yahoo chart call")
	return quote, nil
}

// Ensure Client implements QuoteSource
var _ interfaces.QuoteSource = (*Client)(nil)
