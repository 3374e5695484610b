// Package elevenlabs provides a text-to-speech client for the ElevenLabs API
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
)

const (
	DefaultBaseURL         = "https://api.elevenlabs.io"
	DefaultVoiceID         = "EXAVITQu4vr4xnSDxMaL"
	DefaultTimeout         = 60 * time.Second
	DefaultStability       = 0.25
	DefaultSimilarityBoost = 0.8
)

// Client implements SpeechSynthesizer
type Client struct {
	baseURL         string
	apiKey          string
	voiceID         string
	stability       float64
	similarityBoost float64
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithVoice sets the voice and its settings
func WithVoice(voiceID string, stability, similarityBoost float64) ClientOption {
	return func(c *Client) {
		if voiceID != "" {
			c.voiceID = voiceID
		}
		if stability > 0 {
			c.stability = stability
		}
		if similarityBoost > 0 {
			c.similarityBoost = similarityBoost
		}
	}
}

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

// NewClient creates a new ElevenLabs client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		apiKey:          apiKey,
		voiceID:         DefaultVoiceID,
		stability:       DefaultStability,
		similarityBoost: DefaultSimilarityBoost,
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		limiter:         rate.NewLimiter(rate.Limit(2), 1),
		logger:          common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ElevenLabs API error: %s (status: %d)", e.Message, e.StatusCode)
}

// Synthesize converts text to MP3 audio
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key not configured")
	}
	if text == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(speechRequest{
		Text:          text,
		VoiceSettings: voiceSettings{Stability: c.stability, SimilarityBoost: c.similarityBoost},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("ElevenLabs request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	c.logger.Debug().Int("bytes", len(audio)).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("Synthesized speech")
	return audio, nil
}

// Ensure Client implements SpeechSynthesizer
var _ interfaces.SpeechSynthesizer = (*Client)(nil)
