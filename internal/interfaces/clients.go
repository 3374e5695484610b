// Package interfaces defines service contracts for ClearStock
package interfaces

import (
	"context"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// QuoteSource is one market data provider.
// FetchQuote returns a *models.FetchError on failure.
type QuoteSource interface {
	// Name is the display name used in SourceRecord.Source
	Name() string

	// Reliability is the static trust weight attached to every record from this source
	Reliability() float64

	// FetchQuote retrieves one normalized quote
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// NewsSource retrieves recent headlines for a symbol
type NewsSource interface {
	FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error)
}

// NarrativeGenerator turns prompts into text with a hosted language model
type NarrativeGenerator interface {
	// Name identifies the model provider
	Name() string

	// Generate returns free-form text for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateJSON asks for a JSON answer and decodes it into out
	GenerateJSON(ctx context.Context, prompt string, out any) error

	// DescribeImage sends the prompt together with an inline image or document
	DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

// SpeechSynthesizer converts text to spoken audio
type SpeechSynthesizer interface {
	// Synthesize returns MP3 audio for text
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// PageFetcher retrieves the readable text of a web page
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Mailer delivers composed email messages
type Mailer interface {
	IsConfigured() bool
	Send(ctx context.Context, msg *models.EmailMessage) error
}
