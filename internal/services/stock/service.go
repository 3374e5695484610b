// Package stock produces single-stock analyses, bias reports and cross-market comparisons
package stock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/bias"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

var indianRecommendations = []string{
	"Compare NSE vs BSE prices",
	"Check for currency conversion accuracy",
	"Consider local trading hours impact",
	"Review regulatory filing delays",
	"Check for festival/holiday effects",
}

var usRecommendations = []string{
	"Compare multiple timeframes",
	"Consider fundamental vs. technical analysis",
	"Review analyst consensus variations",
	"Check for recent news impact",
	"Verify after-hours trading effects",
}

// Service implements StockService
type Service struct {
	detector   interfaces.MarketDetector
	aggregator interfaces.Aggregator
	narrator   interfaces.Narrator
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new stock service
func NewService(detector interfaces.MarketDetector, aggregator interfaces.Aggregator, narrator interfaces.Narrator, logger *common.Logger) *Service {
	return &Service{
		detector:   detector,
		aggregator: aggregator,
		narrator:   narrator,
		logger:     logger,
		now:        time.Now,
	}
}

// Analyze aggregates symbol, scores it and asks for a market-aware narrative.
// It returns a *models.NoDataError when no source produced a quote.
func (s *Service) Analyze(ctx context.Context, symbol, analysisType string) (*models.StockAnalysis, error) {
	if analysisType == "" {
		analysisType = "comprehensive"
	}
	market := s.detector.Detect(symbol)
	search := s.detector.SearchSymbol(symbol, market)

	records, err := s.aggregator.Aggregate(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", search, err)
	}
	if len(records) == 0 {
		return nil, &models.NoDataError{Symbol: search, Market: market}
	}

	metric := bias.Score(records)

	text, err := s.narrator.Analyze(ctx, market, narrative.StockRequest(analysisType, search), records)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.SourceSummary, len(records))
	for i, r := range records {
		summaries[i] = models.SourceSummary{Name: r.Source, Reliability: r.Reliability, Market: r.Market, Data: r.Data}
	}

	s.logger.Info().Str("symbol", search).Str("market", string(market)).Int("sources", len(records)).Float64("bias_score", metric.Score).Msg("Stock analyzed")

	return &models.StockAnalysis{
		Symbol:      search,
		Market:      market,
		Timestamp:   s.now().UTC(),
		BiasMetrics: metric,
		Sources:     summaries,
		AIAnalysis:  text,
		Methodology: models.Methodology{
			DataAggregation: fmt.Sprintf("Multi-source consensus for %s markets", market),
			BiasDetection:   "Statistical variance analysis",
			AIReasoning:     "LLM analysis with market-specific bias-aware prompting",
		},
	}, nil
}

// BiasCheck reports on the agreement and failures of the sources for symbol.
// The narrative is skipped when withNarrative is false.
func (s *Service) BiasCheck(ctx context.Context, symbol string, withNarrative bool) (*models.BiasCheckReport, error) {
	market := s.detector.Detect(symbol)
	records, results := s.aggregator.Collect(ctx, symbol)
	metric := bias.Score(records)

	sourceErrors := make([]*models.FetchError, 0)
	for _, r := range results {
		if !r.OK() && r.Err != nil {
			sourceErrors = append(sourceErrors, r.Err)
		}
	}

	report := &models.BiasCheckReport{
		Symbol:           strings.ToUpper(symbol),
		Market:           market,
		BiasScore:        metric.Score,
		ConfidenceLevel:  metric.Confidence,
		SourceCount:      metric.Sources,
		PriceConsistency: metric.PriceRange,
		Recommendations:  recommendationsFor(market),
		SourceErrors:     sourceErrors,
		Sources:          records,
		Timestamp:        s.now().UTC(),
	}

	if withNarrative {
		text, err := s.narrator.Analyze(ctx, market, narrative.BiasRequest(market), map[string]any{
			"sources": records,
			"market":  market,
		})
		if err != nil {
			return nil, err
		}
		report.BiasAnalysis = text
	}
	return report, nil
}

// Compare aggregates a US and an Indian symbol concurrently and asks for a cross-market narrative
func (s *Service) Compare(ctx context.Context, usSymbol, indianSymbol string) (*models.Comparison, error) {
	indianSearch := indianSymbol
	if !strings.Contains(strings.ToUpper(indianSearch), ".NS") {
		indianSearch += ".NS"
	}

	var (
		wg                   sync.WaitGroup
		usRecords, inRecords []models.SourceRecord
		usErr, inErr         error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		usRecords, usErr = s.aggregator.Aggregate(ctx, usSymbol)
	}()
	go func() {
		defer wg.Done()
		inRecords, inErr = s.aggregator.Aggregate(ctx, indianSearch)
	}()
	wg.Wait()

	if usErr != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", usSymbol, usErr)
	}
	if inErr != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", indianSearch, inErr)
	}

	text, err := s.narrator.Analyze(ctx, models.MarketUS, narrative.CompareRequest, map[string]any{
		"usStock":     usRecords,
		"indianStock": inRecords,
	})
	if err != nil {
		return nil, err
	}

	return &models.Comparison{
		Analysis:    text,
		USStock:     models.ComparedStock{Symbol: usSymbol, Sources: len(usRecords), Bias: bias.Score(usRecords)},
		IndianStock: models.ComparedStock{Symbol: indianSymbol, Sources: len(inRecords), Bias: bias.Score(inRecords)},
		CrossMarket: models.CrossMarketInsights{
			CurrencyConsideration: "USD vs INR exposure",
			RegulatoryDifferences: "SEC vs SEBI oversight",
			MarketHours:           "Consider time zone arbitrage opportunities",
		},
		Timestamp: s.now().UTC(),
	}, nil
}

func recommendationsFor(market models.Market) []string {
	if market == models.MarketIndian {
		return append([]string(nil), indianRecommendations...)
	}
	return append([]string(nil), usRecommendations...)
}

// Ensure Service implements StockService
var _ interfaces.StockService = (*Service)(nil)
