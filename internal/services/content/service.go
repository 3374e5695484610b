// Package content scores financial posts and articles for manipulation
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

const (
	// MaxMarketChecks is the number of mentioned symbols checked against live data
	MaxMarketChecks = 3

	previewLength = 200
)

var (
	// ErrContentRequired is returned when neither content nor a url was given
	ErrContentRequired = errors.New("content required")

	// ErrPageUnavailable wraps url fetch failures
	ErrPageUnavailable = errors.New("could not fetch content from url")
)

// Service implements ContentService
type Service struct {
	aggregator interfaces.Aggregator
	pages      interfaces.PageFetcher
	narrator   interfaces.Narrator
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a content service. pages may be nil, which disables url fetching.
func NewService(aggregator interfaces.Aggregator, pages interfaces.PageFetcher, narrator interfaces.Narrator, logger *common.Logger) *Service {
	return &Service{
		aggregator: aggregator,
		pages:      pages,
		narrator:   narrator,
		logger:     logger,
		now:        time.Now,
	}
}

// Check scores content, compares its stock mentions with market data and asks for a review.
// When content is empty the text of url is used instead.
func (s *Service) Check(ctx context.Context, content, url string) (*models.ContentReport, error) {
	if strings.TrimSpace(content) == "" {
		if url == "" || s.pages == nil {
			return nil, ErrContentRequired
		}
		text, err := s.pages.FetchText(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPageUnavailable, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, ErrContentRequired
		}
		content = text
	}

	mentioned := ExtractSymbols(content)
	stockData := make(map[string][]models.SourceRecord)
	for _, sym := range mentioned[:min(len(mentioned), MaxMarketChecks)] {
		records, err := s.aggregator.Aggregate(ctx, sym)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("Market data check failed")
			continue
		}
		if len(records) > 0 {
			stockData[sym] = records
		}
	}

	data := map[string]any{
		"content":   content,
		"stockData": stockData,
		"url":       url,
	}
	text, err := s.narrator.Analyze(ctx, models.MarketUS, narrative.ContentRequest(content), data)
	if err != nil {
		return nil, err
	}

	bias := Analyze(content)
	s.logger.Info().Int("score", bias.Score).Int("mentions", len(mentioned)).Msg("Content checked")

	return &models.ContentReport{
		ContentPreview:  Preview(content),
		BiasScore:       bias.Score,
		TrustLevel:      bias.TrustLevel,
		RedFlags:        bias.RedFlags,
		MentionedStocks: mentioned,
		MarketDataCheck: len(stockData) > 0,
		AIAnalysis:      text,
		Recommendation:  bias.Recommendation,
		Timestamp:       s.now().UTC(),
	}, nil
}

// Preview returns the first 200 characters of content followed by an ellipsis
func Preview(content string) string {
	r := []rune(content)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r) + "..."
}

// Ensure Service implements ContentService
var _ interfaces.ContentService = (*Service)(nil)
