// Package sentiment analyzes recent news coverage of a symbol
package sentiment

import (
	"context"
	"strings"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

// Window is how far back headlines are collected
const Window = 7 * 24 * time.Hour

var marketFactors = map[models.Market]string{
	models.MarketIndian: "Consider local regulatory changes, monsoon impact, election cycles",
	models.MarketUS:     "Consider Fed policy, earnings season, geopolitical events",
}

// Service implements SentimentService
type Service struct {
	detector interfaces.MarketDetector
	news     map[models.Market]interfaces.NewsSource
	narrator interfaces.Narrator
	logger   *common.Logger
	now      func() time.Time
}

// NewService creates a sentiment service. Either news source may be nil.
func NewService(detector interfaces.MarketDetector, usNews, indianNews interfaces.NewsSource, narrator interfaces.Narrator, logger *common.Logger) *Service {
	news := make(map[models.Market]interfaces.NewsSource)
	if usNews != nil {
		news[models.MarketUS] = usNews
	}
	if indianNews != nil {
		news[models.MarketIndian] = indianNews
	}
	return &Service{
		detector: detector,
		news:     news,
		narrator: narrator,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze collects the last week of headlines and asks for a media bias review.
// A failed news fetch is logged and the analysis runs on no headlines.
func (s *Service) Analyze(ctx context.Context, symbol string) (*models.SentimentReport, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	market := s.detector.Detect(symbol)

	to := s.now()
	headlines := []models.NewsItem{}
	if src, ok := s.news[market]; ok {
		items, err := src.FetchNews(ctx, symbol, to.Add(-Window), to)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Str("market", string(market)).Msg("News fetch failed")
		} else {
			headlines = items
		}
	}

	data := map[string]any{
		"symbol": symbol,
		"news":   headlines,
		"market": market,
	}
	text, err := s.narrator.Analyze(ctx, market, narrative.SentimentRequest(market), data)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("symbol", symbol).Int("headlines", len(headlines)).Msg("Sentiment analyzed")

	return &models.SentimentReport{
		Symbol:            symbol,
		Market:            market,
		SentimentAnalysis: text,
		NewsSources:       len(headlines),
		Headlines:         headlines,
		BiasConsiderations: models.BiasConsiderations{
			SourceDiversity:       len(headlines) > 1,
			TemporalBias:          "Recent 7-day window",
			MarketSpecificFactors: marketFactors[market],
			Recommendation:        "Cross-reference with fundamental analysis and multiple timeframes",
		},
		Timestamp: to.UTC(),
	}, nil
}

// Ensure Service implements SentimentService
var _ interfaces.SentimentService = (*Service)(nil)
