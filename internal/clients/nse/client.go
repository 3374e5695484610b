// Package nse provides a client for the NSE India quote-equity API
package nse

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
	DefaultBaseURL = "https://www.nseindia.com"
	DefaultTimeout = 5 * time.Second

	SourceName = "NSE India"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer    = "https://www.nseindia.com/"
)

// Client implements QuoteSource against NSE India.
// Requests are limited to 2 per second with at most one in flight.
type Client struct {
	baseURL string
	timeout time.Duration
	session *Session
	limiter *rate.Limiter
	slot    chan struct{}
	logger  *common.Logger
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

// WithTimeout sets the quote call timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a new NSE client using session for cookies
func NewClient(session *Session, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		session: session,
		limiter: rate.NewLimiter(2, 1),
		slot:    make(chan struct{}, 1),
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
func (c *Client) Reliability() float64 { return 0.95 }

// FetchQuote retrieves a quote for an NSE base symbol such as "INFY".
// Exchange suffixes are stripped.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.TrimSuffix(strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(symbol)), ".NS"), ".BO")

	select {
	case c.slot <- struct{}{}:
		defer func() { <-c.slot }()
	case <-ctx.Done():
		return nil, models.TransportError(SourceName, symbol, ctx.Err())
	}

	if err := c.session.EnsureInitialized(ctx); err != nil {
		return nil, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchSession, Err: err}
	}

	quote, status, err := c.fetch(ctx, symbol)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.logger.Warn().Str("symbol", symbol).Int("status", status).Msg("NSE rejected session, re-initializing")
		c.session.Reset()
		if initErr := c.session.Init(ctx); initErr != nil {
			return nil, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchSession, StatusCode: status, Err: initErr}
		}
		quote, _, err = c.fetch(ctx, symbol)
	}
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// fetch performs one rate-limited quote call and returns the HTTP status alongside the result
func (c *Client) fetch(ctx context.Context, symbol string) (*models.Quote, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, models.TransportError(SourceName, symbol, fmt.Errorf("rate limit wait: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/api/quote-equity?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, models.TransportError(SourceName, symbol, fmt.Errorf("failed to create request: %w", err))
	}
	setBrowserHeaders(req)

	c.logger.Debug().Str("symbol", symbol).Msg("NSE quote request")

	start := time.Now()
	resp, err := c.session.Client().Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("NSE quote request failed")
		return nil, 0, models.TransportError(SourceName, symbol, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.Warn().Str("symbol", symbol).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("NSE quote non-OK response")
		return nil, resp.StatusCode, &models.FetchError{
			Source:     SourceName,
			Symbol:     symbol,
			Kind:       models.FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("nse returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload models.NSEQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchDecode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	quote, err := payload.ToQuote(symbol)
	if err != nil {
		return nil, resp.StatusCode, &models.FetchError{Source: SourceName, Symbol: symbol, Kind: models.FetchMissing, Err: fmt.Errorf("priceInfo not found: %w", err)}
	}

	c.logger.Info().Str("symbol", symbol).Float64("price", models.Value(quote.Price)).Dur("elapsed", elapsed).Msg("NSE quote call")
	return quote, resp.StatusCode, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", referer)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Cache-Control", "no-cache")
}

// Ensure Client implements QuoteSource
var _ interfaces.QuoteSource = (*Client)(nil)
