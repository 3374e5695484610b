// Package portfolio analyzes client-submitted holdings
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/bias"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

// DefaultHoldingDelay is the pause between holdings to spare upstream rate limits
const DefaultHoldingDelay = 200 * time.Millisecond

// Service implements PortfolioService
type Service struct {
	detector   interfaces.MarketDetector
	aggregator interfaces.Aggregator
	narrator   interfaces.Narrator
	delay      time.Duration
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new portfolio service
func NewService(detector interfaces.MarketDetector, aggregator interfaces.Aggregator, narrator interfaces.Narrator, delay time.Duration, logger *common.Logger) *Service {
	return &Service{
		detector:   detector,
		aggregator: aggregator,
		narrator:   narrator,
		delay:      delay,
		logger:     logger,
		now:        time.Now,
	}
}

// Analyze aggregates every holding in turn and asks for a portfolio narrative
func (s *Service) Analyze(ctx context.Context, holdings []models.Holding, analysisType string) (*models.PortfolioAnalysis, error) {
	if analysisType == "" {
		analysisType = "risk_assessment"
	}

	var breakdown models.MarketBreakdown
	analyses := make([]models.HoldingAnalysis, 0, len(holdings))
	weighted := 0.0
	lowQuality := false

	err := s.each(ctx, holdings, func(h models.Holding, sources []models.SourceRecord) {
		market := s.detector.Detect(h.Symbol)
		breakdown.Add(market, h.Weight)

		metric := bias.Score(sources)
		weighted += metric.Score * h.Weight
		if metric.Confidence == models.ConfidenceLow {
			lowQuality = true
		}

		analyses = append(analyses, models.HoldingAnalysis{
			Symbol:    h.Symbol,
			Weight:    h.Weight,
			Market:    market,
			Sources:   sources,
			BiasScore: metric,
		})
	})
	if err != nil {
		return nil, err
	}

	text, err := s.narrator.Analyze(ctx, dominantMarket(breakdown), narrative.PortfolioRequest(analysisType, breakdown), analyses)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("holdings", len(holdings)).Float64("us", breakdown.US).Float64("indian", breakdown.Indian).Msg("Portfolio analyzed")

	return &models.PortfolioAnalysis{
		Analysis:           text,
		MarketBreakdown:    breakdown,
		IndividualHoldings: analyses,
		PortfolioBiasScore: models.PortfolioBiasScore{
			WeightedAverage:        weighted,
			DiversificationBenefit: len(holdings) > 1,
			CrossMarketExposure:    breakdown.Markets() > 1,
		},
		Risks: models.PortfolioRisks{
			CurrencyRisk:        breakdown.US > 0 && breakdown.Indian > 0,
			RegulatoryRisk:      "Multiple jurisdictions",
			DataQualityVariance: lowQuality,
		},
		Timestamp: s.now().UTC(),
	}, nil
}

// Clarity resolves live values for every holding, scores the portfolio and adds the honest review
func (s *Service) Clarity(ctx context.Context, holdings []models.Holding) (*models.ClarityReport, error) {
	resolved := make([]models.ClarityHolding, 0, len(holdings))
	err := s.each(ctx, holdings, func(h models.Holding, sources []models.SourceRecord) {
		var live *float64
		if len(sources) > 0 {
			live = sources[0].Data.Price
		}
		resolved = append(resolved, ResolveHolding(h, live, sources))
	})
	if err != nil {
		return nil, err
	}

	report := ScoreClarity(resolved)

	text, err := s.narrator.Analyze(ctx, models.MarketIndian,
		narrative.ClarityRequest(report.PortfolioSummary, report.HealthScore, report.AnxietyScore, resolved), resolved)
	if err != nil {
		return nil, err
	}
	report.FullAnalysis = text
	report.Timestamp = s.now().UTC()

	s.logger.Info().Int("holdings", len(holdings)).Float64("health", report.HealthScore).Int("anxiety", report.AnxietyScore).Msg("Clarity analysis complete")
	return report, nil
}

// each aggregates holdings sequentially with a fixed pause between them
func (s *Service) each(ctx context.Context, holdings []models.Holding, fn func(models.Holding, []models.SourceRecord)) error {
	for i, h := range holdings {
		if i > 0 && s.delay > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return err
			}
		}
		sources, err := s.aggregator.Aggregate(ctx, h.Symbol)
		if err != nil {
			return fmt.Errorf("failed to aggregate %s: %w", h.Symbol, err)
		}
		fn(h, sources)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func dominantMarket(b models.MarketBreakdown) models.Market {
	if b.Indian > b.US {
		return models.MarketIndian
	}
	return models.MarketUS
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
