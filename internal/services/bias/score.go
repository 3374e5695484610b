// Package bias scores the agreement between quote sources
package bias

import (
	"math"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// Confidence thresholds on the scaled coefficient of variation
const (
	highThreshold   = 0.02
	mediumThreshold = 0.05
)

// Score computes the cross-source dispersion metric for sources.
// Fewer than two usable prices yield the fixed {0.5, low} result.
func Score(sources []models.SourceRecord) models.BiasMetric {
	market := models.MarketUnknown
	if len(sources) > 0 && sources[0].Market != "" {
		market = sources[0].Market
	}

	prices := Prices(sources)
	if len(prices) < 2 {
		return models.BiasMetric{
			Score:      0.5,
			Confidence: models.ConfidenceLow,
			Sources:    len(prices),
			Market:     market,
		}
	}

	minP, maxP, sum := prices[0], prices[0], 0.0
	for _, p := range prices {
		sum += p
		minP = math.Min(minP, p)
		maxP = math.Max(maxP, p)
	}
	mean := sum / float64(len(prices))
	rng := &models.PriceRange{Min: minP, Max: maxP, Mean: mean}

	if mean == 0 {
		return models.BiasMetric{
			Score:      1,
			Confidence: models.ConfidenceLow,
			Sources:    len(prices),
			Market:     market,
			PriceRange: rng,
		}
	}

	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(prices))
	cv := math.Sqrt(variance) / math.Abs(mean)
	score := math.Min(cv*10, 1)

	return models.BiasMetric{
		Score:      score,
		Confidence: confidenceFor(score),
		Sources:    len(prices),
		Market:     market,
		PriceRange: rng,
	}
}

// Prices returns the finite price of every source that reported one
func Prices(sources []models.SourceRecord) []float64 {
	prices := make([]float64, 0, len(sources))
	for _, s := range sources {
		if p, ok := Price(s); ok {
			prices = append(prices, p)
		}
	}
	return prices
}

// Price returns the usable price of one source. Previous closes never count.
func Price(s models.SourceRecord) (float64, bool) {
	return usable(s.Data.Price)
}

func usable(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

func confidenceFor(score float64) string {
	switch {
	case score < highThreshold:
		return models.ConfidenceHigh
	case score < mediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
