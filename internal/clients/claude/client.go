// Package claude provides a narrative generator backed by the Anthropic Messages API
package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 2048

	jsonInstruction = "Respond with a single JSON object only. Do not wrap it in prose."
)

// Client implements NarrativeGenerator with Claude
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens sets the completion token limit
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Claude client. Request options such as
// option.WithBaseURL are passed through to the SDK.
func NewClient(apiKey string, requestOpts []option.RequestOption, opts ...ClientOption) *Client {
	c := &Client{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		logger:    common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, requestOpts...)
	c.client = anthropic.NewClient(reqOpts...)
	return c
}

// Name returns the provider name
func (c *Client) Name() string { return "claude" }

// Generate generates text from a prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "", anthropic.NewTextBlock(prompt))
}

// GenerateJSON asks for a JSON object and decodes it into out
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	text, err := c.complete(ctx, jsonInstruction, anthropic.NewTextBlock(prompt))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(common.ExtractJSONBlock(text)), out); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

// DescribeImage sends the prompt with a base64 image block
func (c *Client) DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("unsupported media type for Claude vision: %s", mimeType)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return c.complete(ctx, "",
		anthropic.NewImageBlockBase64(mimeType, encoded),
		anthropic.NewTextBlock(prompt),
	)
}

func (c *Client) complete(ctx context.Context, system string, blocks ...anthropic.ContentBlockParamUnion) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.model).Dur("elapsed", time.Since(start)).Msg("Claude request failed")
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	c.logger.Debug().Str("model", c.model).Int("length", response.Len()).Dur("elapsed", time.Since(start)).Msg("Generated content")
	return response.String(), nil
}

// Ensure Client implements NarrativeGenerator
var _ interfaces.NarrativeGenerator = (*Client)(nil)
