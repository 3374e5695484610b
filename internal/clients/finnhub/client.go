// Package finnhub provides a client for the Finnhub quote and company news API
package finnhub

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
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 30 // requests per second

	SourceName = "Finnhub"
)

// Client implements QuoteSource and NewsSource against Finnhub
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new Finnhub client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
func (c *Client) Reliability() float64 { return 0.85 }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if c.apiKey == "" {
		return &models.FetchError{Source: SourceName, Symbol: params.Get("symbol"), Kind: models.FetchConfig, Err: fmt.Errorf("api key not configured")}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return models.TransportError(SourceName, params.Get("symbol"), fmt.Errorf("rate limit wait: %w", err))
	}

	params.Set("token", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.TransportError(SourceName, params.Get("symbol"), fmt.Errorf("failed to create request: %w", err))
	}

	c.logger.Debug().Str("url", c.baseURL+path).Str("symbol", params.Get("symbol")).Msg("Finnhub API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Dur("elapsed", elapsed).Msg("Finnhub API request failed")
		return models.TransportError(SourceName, params.Get("symbol"), fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Finnhub API non-OK response")
		return &models.FetchError{
			Source:     SourceName,
			Symbol:     params.Get("symbol"),
			Kind:       models.FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path},
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &models.FetchError{Source: SourceName, Symbol: params.Get("symbol"), Kind: models.FetchDecode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Debug().Str("path", path).Dur("elapsed", elapsed).Msg("Finnhub API call")
	return nil
}

// FetchQuote retrieves a real-time quote
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	params := url.Values{}
	params.Set("symbol", symbol)

	var payload models.FinnhubQuote
	if err := c.get(ctx, "/quote", params, &payload); err != nil {
		return nil, err
	}

	quote, err := payload.ToQuote(symbol)
	if err != nil {
		return nil, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchMissing, Err: err}
	}
	return quote, nil
}

// FetchNews retrieves company news between from and to
func (c *Client) FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var raw []models.FinnhubNewsItem
	if err := c.get(ctx, "/company-news", params, &raw); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		if n.Headline == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Headline:    n.Headline,
			Source:      n.Source,
			URL:         n.URL,
			Summary:     n.Summary,
			PublishedAt: time.Unix(n.Datetime, 0).UTC(),
		})
	}
	return items, nil
}

// Ensure Client implements QuoteSource and NewsSource
var (
	_ interfaces.QuoteSource = (*Client)(nil)
	_ interfaces.NewsSource  = (*Client)(nil)
)
