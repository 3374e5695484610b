// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultVisionModel = "gemini-2.5-flash"
)

// Client implements NarrativeGenerator with Gemini text and vision models
type Client struct {
	client      *genai.Client
	model       string
	visionModel string
	baseURL     string
	logger      *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the text model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithVisionModel sets the model used for image and document input
func WithVisionModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.visionModel = model
		}
	}
}

// WithBaseURL overrides the API endpoint
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

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:       DefaultModel,
		visionModel: DefaultVisionModel,
		logger:      common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = genaiClient

	return c, nil
}

// Name returns the provider name
func (c *Client) Name() string { return "gemini" }

// Close closes the client
func (c *Client) Close() error {
	// The genai client doesn't have a Close method
	return nil
}

// Generate generates text from a prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, c.model, textContents(prompt), nil)
}

// GenerateJSON requests a JSON response and decodes it into out
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	text, err := c.generate(ctx, c.model, textContents(prompt), config)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(common.ExtractJSONBlock(text)), out); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

// DescribeImage sends prompt with inline image or PDF bytes to the vision model
func (c *Client) DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(prompt),
				genai.NewPartFromBytes(data, mimeType),
			},
		},
	}
	return c.generate(ctx, c.visionModel, contents, nil)
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	c.logger.Debug().Str("model", model).Msg("Generating content")

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", model).Dur("elapsed", time.Since(start)).Msg("Gemini request failed")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return "", err
	}
	c.logger.Debug().Str("model", model).Int("length", len(text)).Dur("elapsed", time.Since(start)).Msg("Generated content")
	return text, nil
}

func textContents(prompt string) []*genai.Content {
	return []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements NarrativeGenerator
var _ interfaces.NarrativeGenerator = (*Client)(nil)
