// Package webpage fetches articles and reduces them to readable text
package webpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 2 << 20
	MaxTextLength   = 8000

	userAgent = "Mozilla/5.0 (compatible; ClearStock/1.0; +https://clearstock.app)"
)

// content selectors tried in priority order
var articleSelectors = []string{"article", "main", "[role='main']", ".article-body", ".story-content", "body"}

// noise removed before text extraction
var noiseSelectors = []string{"script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe", ".advertisement", ".ad", "[aria-hidden='true']"}

// Client implements PageFetcher
type Client struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new page fetcher
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxBytes:   DefaultMaxBytes,
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchText downloads url and returns the main article text
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported url scheme: %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Dur("elapsed", time.Since(start)).Msg("Page fetch failed")
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	text := ExtractText(doc)
	c.logger.Debug().Str("url", url).Int("length", len(text)).Dur("elapsed", time.Since(start)).Msg("Fetched page text")
	if text == "" {
		return "", fmt.Errorf("no readable text found at %s", url)
	}
	return text, nil
}

// ExtractText returns the whitespace-collapsed text of the first matching article container
func ExtractText(doc *goquery.Document) string {
	for _, selector := range noiseSelectors {
		doc.Find(selector).Remove()
	}

	for _, selector := range articleSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		var b strings.Builder
		writeText(&b, sel)
		text := strings.Join(strings.Fields(b.String()), " ")
		if text == "" {
			continue
		}
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" && !strings.HasPrefix(text, title) {
			text = title + ". " + text
		}
		return truncate(text, MaxTextLength)
	}
	return ""
}

// elements whose text must not run into that of their neighbours
var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "br": true, "dd": true, "div": true,
	"dl": true, "dt": true, "figcaption": true, "figure": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "hr": true, "li": true, "main": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// writeText appends the text nodes under sel in document order, padding block elements with spaces.
func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		switch name := goquery.NodeName(child); name {
		case "#text":
			b.WriteString(child.Text())
		case "#comment":
		default:
			block := blockElements[name]
			if block {
				b.WriteByte(' ')
			}
			writeText(b, child)
			if block {
				b.WriteByte(' ')
			}
		}
	})
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Ensure Client implements PageFetcher
var _ interfaces.PageFetcher = (*Client)(nil)
