package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/market"
	"github.com/darshan15062002/stock-analysis/internal/services/servicetest"
)

func newTestService(agg *servicetest.Aggregator, narrator *servicetest.Narrator) *Service {
	return NewService(market.NewDetector("US"), agg, narrator, common.NewSilentLogger())
}

func TestAnalyze_IndianSymbolGetsSuffix(t *testing.T) {
	agg := servicetest.NewAggregator().
		Price("RELIANCE.NS", "Yahoo Finance India", 2950).
		Price("RELIANCE.NS", "NSE India", 2950)
	narrator := &servicetest.Narrator{Text: "balanced view"}

	got, err := newTestService(agg, narrator).Analyze(context.Background(), "reliance", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"RELIANCE.NS"}, agg.Calls)
	assert.Equal(t, "RELIANCE.NS", got.Symbol)
	assert.Equal(t, models.MarketIndian, got.Market)
	assert.Equal(t, 0.0, got.BiasMetrics.Score)
	assert.Equal(t, models.ConfidenceHigh, got.BiasMetrics.Confidence)
	assert.Len(t, got.Sources, 2)
	assert.Equal(t, "balanced view", got.AIAnalysis)
	assert.Equal(t, "Multi-source consensus for INDIAN markets", got.Methodology.DataAggregation)
	assert.Equal(t, []string{"Provide comprehensive analysis for RELIANCE.NS"}, narrator.Requests)
}

func TestAnalyze_NoData(t *testing.T) {
	_, err := newTestService(servicetest.NewAggregator(), &servicetest.Narrator{}).Analyze(context.Background(), "ZZZZ", "comprehensive")

	var nd *models.NoDataError
	require.True(t, errors.As(err, &nd))
	assert.Equal(t, "ZZZZ", nd.Symbol)
	assert.Equal(t, models.MarketUS, nd.Market)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestAnalyze_NarrativeFailure(t *testing.T) {
	agg := servicetest.NewAggregator().Price("AAPL", "Finnhub", 187)
	_, err := newTestService(agg, &servicetest.Narrator{Err: errors.New("AI analysis unavailable")}).Analyze(context.Background(), "AAPL", "technical")
	assert.EqualError(t, err, "AI analysis unavailable")
}

func TestBiasCheck_ReportsSourceErrors(t *testing.T) {
	agg := servicetest.NewAggregator().Price("AAPL", "Finnhub", 187)
	fe := &models.FetchError{Source: "AlphaVantage", Symbol: "AAPL", Kind: models.FetchTimeout}
	agg.Results["AAPL"] = []models.FetchResult{{Source: "AlphaVantage", Err: fe}, {Source: "Finnhub", Record: &agg.Records["AAPL"][0]}}
	narrator := &servicetest.Narrator{Text: "consistent"}

	got, err := newTestService(agg, narrator).BiasCheck(context.Background(), "aapl", true)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 0.5, got.BiasScore)
	assert.Equal(t, models.ConfidenceLow, got.ConfidenceLevel)
	assert.Equal(t, 1, got.SourceCount)
	assert.Nil(t, got.PriceConsistency)
	assert.Equal(t, []*models.FetchError{fe}, got.SourceErrors)
	assert.Len(t, got.Recommendations, 5)
	assert.Equal(t, "Compare multiple timeframes", got.Recommendations[0])
	assert.Equal(t, "consistent", got.BiasAnalysis)
}

func TestBiasCheck_WithoutNarrative(t *testing.T) {
	narrator := &servicetest.Narrator{Err: errors.New("should not be called")}
	got, err := newTestService(servicetest.NewAggregator(), narrator).BiasCheck(context.Background(), "TCS.NS", false)
	require.NoError(t, err)
	assert.Empty(t, narrator.Prompts)
	assert.Equal(t, "Compare NSE vs BSE prices", got.Recommendations[0])
	assert.NotNil(t, got.SourceErrors)
}

func TestCompare(t *testing.T) {
	agg := servicetest.NewAggregator().
		Price("AAPL", "Finnhub", 187).
		Price("TCS.NS", "Yahoo Finance India", 4120).
		Price("TCS.NS", "NSE India", 4121)
	narrator := &servicetest.Narrator{Text: "cross-market view"}

	got, err := newTestService(agg, narrator).Compare(context.Background(), "AAPL", "TCS")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "TCS.NS"}, agg.Calls)
	assert.Equal(t, "TCS", got.IndianStock.Symbol)
	assert.Equal(t, 2, got.IndianStock.Sources)
	assert.Equal(t, 1, got.USStock.Sources)
	assert.Equal(t, 0.5, got.USStock.Bias.Score)
	assert.Equal(t, "SEC vs SEBI oversight", got.CrossMarket.RegulatoryDifferences)
	assert.Equal(t, "cross-market view", got.Analysis)
}
