// Package interfaces defines service contracts for ClearStock
package interfaces

import (
	"context"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// MarketDetector classifies tickers by market
type MarketDetector interface {
	Detect(symbol string) models.Market
	SearchSymbol(symbol string, market models.Market) string
}

// Aggregator fans out to the quote sources of a symbol's market
type Aggregator interface {
	// Aggregate returns the successful records in source declaration order.
	// An empty slice with a nil error means every source failed.
	Aggregate(ctx context.Context, symbol string) ([]models.SourceRecord, error)

	// Collect returns the successful records together with every raw result
	Collect(ctx context.Context, symbol string) ([]models.SourceRecord, []models.FetchResult)
}

// StockService produces single-stock and cross-market analyses
type StockService interface {
	Analyze(ctx context.Context, symbol, analysisType string) (*models.StockAnalysis, error)
	BiasCheck(ctx context.Context, symbol string, withNarrative bool) (*models.BiasCheckReport, error)
	Compare(ctx context.Context, usSymbol, indianSymbol string) (*models.Comparison, error)
}

// PortfolioService analyzes client-submitted holdings
type PortfolioService interface {
	Analyze(ctx context.Context, holdings []models.Holding, analysisType string) (*models.PortfolioAnalysis, error)
	Clarity(ctx context.Context, holdings []models.Holding) (*models.ClarityReport, error)
}

// SentimentService analyzes recent news coverage of a symbol
type SentimentService interface {
	Analyze(ctx context.Context, symbol string) (*models.SentimentReport, error)
}

// ContentService scores financial content for manipulation
type ContentService interface {
	Check(ctx context.Context, content, url string) (*models.ContentReport, error)
}

// StoryService narrates a stock as a five act story
type StoryService interface {
	Tell(ctx context.Context, symbol, style string) (*models.StoryReport, error)
}

// ExtractionService reads holdings out of screenshots and statements
type ExtractionService interface {
	// FromImage returns the raw model output alongside the parsed portfolio
	FromImage(ctx context.Context, mimeType string, data []byte) (*models.ExtractedPortfolio, string, error)

	// FromStatement extracts holdings from a PDF broker statement
	FromStatement(ctx context.Context, data []byte) (*models.ExtractedPortfolio, string, error)
}

// ChartService renders charts as PNG
type ChartService interface {
	BiasChart(report *models.BiasCheckReport) ([]byte, error)
}

// SubscriptionService manages report subscriptions
type SubscriptionService interface {
	Subscribe(ctx context.Context, sub *models.Subscription) (id string, created bool, err error)
	Get(ctx context.Context, email string) (*models.Subscription, error)
	ListDaily(ctx context.Context) ([]*models.Subscription, error)
	IssueUnsubscribeToken(email string) (string, error)
	Unsubscribe(ctx context.Context, token string) (string, error)
}

// DigestService sends the scheduled portfolio report emails
type DigestService interface {
	Run(ctx context.Context) (*models.DigestRun, error)
}

// Narrator runs analyst prompts against the configured language models
type Narrator interface {
	// Analyze wraps request and data in the market-aware analyst brief
	Analyze(ctx context.Context, market models.Market, request string, data any) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out any) error
	DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}
