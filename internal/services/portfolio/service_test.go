package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/market"
	"github.com/darshan15062002/stock-analysis/internal/services/servicetest"
)

func newTestService(agg *servicetest.Aggregator, narrator *servicetest.Narrator) *Service {
	return NewService(market.NewDetector("US"), agg, narrator, 0, common.NewSilentLogger())
}

func TestAnalyze_CrossMarketBreakdown(t *testing.T) {
	agg := servicetest.NewAggregator().
		Price("AAPL", "Finnhub", 187).
		Price("AAPL", "AlphaVantage", 187).
		Price("RELIANCE.NS", "Yahoo Finance India", 2950)
	narrator := &servicetest.Narrator{Text: "diversified"}

	got, err := newTestService(agg, narrator).Analyze(context.Background(), []models.Holding{
		{Symbol: "AAPL", Weight: 0.5},
		{Symbol: "RELIANCE.NS", Weight: 0.5},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, models.MarketBreakdown{US: 0.5, Indian: 0.5}, got.MarketBreakdown)
	assert.Equal(t, []string{"AAPL", "RELIANCE.NS"}, agg.Calls)
	require.Len(t, got.IndividualHoldings, 2)
	assert.Equal(t, models.MarketIndian, got.IndividualHoldings[1].Market)
	assert.True(t, got.PortfolioBiasScore.DiversificationBenefit)
	assert.True(t, got.PortfolioBiasScore.CrossMarketExposure)
	assert.True(t, got.Risks.CurrencyRisk)
	assert.Equal(t, "Multiple jurisdictions", got.Risks.RegulatoryRisk)
	// RELIANCE has a single source, so its confidence is low
	assert.True(t, got.Risks.DataQualityVariance)
	assert.InDelta(t, 0.25, got.PortfolioBiasScore.WeightedAverage, 1e-9)
	assert.Equal(t, "diversified", got.Analysis)
}

func TestAnalyze_SingleMarket(t *testing.T) {
	agg := servicetest.NewAggregator().
		Price("AAPL", "Finnhub", 187).
		Price("AAPL", "AlphaVantage", 187)

	got, err := newTestService(agg, &servicetest.Narrator{}).Analyze(context.Background(), []models.Holding{{Symbol: "AAPL", Weight: 1}}, "risk_assessment")
	require.NoError(t, err)
	assert.False(t, got.PortfolioBiasScore.DiversificationBenefit)
	assert.False(t, got.PortfolioBiasScore.CrossMarketExposure)
	assert.False(t, got.Risks.CurrencyRisk)
	assert.False(t, got.Risks.DataQualityVariance)
}

func TestAnalyze_NarrativeFailure(t *testing.T) {
	agg := servicetest.NewAggregator().Price("AAPL", "Finnhub", 187)
	_, err := newTestService(agg, &servicetest.Narrator{Err: errors.New("AI analysis unavailable")}).
		Analyze(context.Background(), []models.Holding{{Symbol: "AAPL", Weight: 1}}, "")
	assert.EqualError(t, err, "AI analysis unavailable")
}

func TestAnalyze_CancelledBetweenHoldings(t *testing.T) {
	agg := servicetest.NewAggregator()
	svc := NewService(market.NewDetector("US"), agg, &servicetest.Narrator{}, time.Hour, common.NewSilentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Analyze(ctx, []models.Holding{{Symbol: "AAPL"}, {Symbol: "MSFT"}}, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"AAPL"}, agg.Calls)
}

func TestClarity_UsesLivePrice(t *testing.T) {
	agg := servicetest.NewAggregator().Price("TCS.NS", "Yahoo Finance India", 3000)
	narrator := &servicetest.Narrator{Text: "honest review"}

	got, err := newTestService(agg, narrator).Clarity(context.Background(), []models.Holding{
		{Symbol: "TCS.NS", Quantity: 10, Invested: 40000},
	})
	require.NoError(t, err)

	require.Len(t, got.Holdings, 1)
	h := got.Holdings[0]
	assert.Equal(t, 30000.0, h.CurrentValue)
	assert.Equal(t, -10000.0, h.PnL)
	assert.Equal(t, -25.0, h.PnLPercent)
	assert.Equal(t, "honest review", got.FullAnalysis)
	assert.False(t, got.Timestamp.IsZero())
	require.Len(t, narrator.Requests, 1)
	assert.Contains(t, narrator.Requests[0], "TCS.NS")
}
