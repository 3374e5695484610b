// Package googlenews provides a client for the Google News RSS search feed
package googlenews

import (
	"context"
	"encoding/xml"
	"fmt"
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
	DefaultBaseURL   = "https://news.google.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2 // requests per second
	DefaultMaxItems  = 10
)

// Client implements NewsSource for Indian listings using the en-IN edition
type Client struct {
	baseURL    string
	maxItems   int
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

// NewClient creates a new Google News RSS client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		maxItems: DefaultMaxItems,
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

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Source      struct {
		Name string `xml:",chardata"`
		URL  string `xml:"url,attr"`
	} `xml:"source"`
}

// FetchNews searches "{symbol} stock NSE" and keeps items published in [from, to].
// Items with an unparseable date are kept.
func (c *Client) FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(symbol)), ".NS"), ".BO")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", base+" stock NSE")
	params.Set("hl", "en-IN")
	params.Set("gl", "IN")
	params.Set("ceid", "IN:en")
	reqURL := fmt.Sprintf("%s/rss/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", base).Dur("elapsed", elapsed).Msg("Google News request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("symbol", base).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Google News non-OK response")
		return nil, fmt.Errorf("google news returned status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	items := make([]models.NewsItem, 0, c.maxItems)
	for _, it := range feed.Channel.Items {
		if len(items) >= c.maxItems {
			break
		}
		published, err := time.Parse(time.RFC1123, it.PubDate)
		if err != nil {
			published, err = time.Parse(time.RFC1123Z, it.PubDate)
		}
		if err == nil && (published.Before(from) || published.After(to)) {
			continue
		}
		source := strings.TrimSpace(it.Source.Name)
		if source == "" {
			source = "Google News"
		}
		items = append(items, models.NewsItem{
			Headline:    strings.TrimSpace(it.Title),
			Source:      source,
			URL:         it.Link,
			PublishedAt: published.UTC(),
		})
	}

	c.logger.Debug().Str("symbol", base).Int("items", len(items)).Dur("elapsed", elapsed).Msg("Google News call")
	return items, nil
}

// Ensure Client implements NewsSource
var _ interfaces.NewsSource = (*Client)(nil)
