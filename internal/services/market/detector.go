// Package market classifies tickers into the markets ClearStock supports
package market

import (
	"strings"

	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// indianSuffixes mark a ticker as listed on NSE or BSE. .NSC and .BSC are legacy client markers.
var indianSuffixes = []string{".NS", ".BO", ".NSC", ".BSC"}

// indianNames are fragments of large-cap Indian company tickers
var indianNames = []string{"RELIANCE", "TCS", "INFY", "HDFC", "ICICI", "BAJAJ", "ADANI", "TATA", "WIPRO", "BHARTI"}

// nseSymbols maps Yahoo-style tickers to the NSE quote-equity symbol where they differ
var nseSymbols = map[string]string{
	"INFOSYS":       "INFY",
	"ADANITOTALGAS": "ATGL",
	"M&M":           "MM",
	"KALYANJEWL":    "KALYANKJ",
}

// Detector implements MarketDetector
type Detector struct {
	fallback models.Market
}

// NewDetector creates a detector. fallback is the market of symbols no rule matches;
// anything other than INDIAN is treated as US.
func NewDetector(fallback string) *Detector {
	m := models.MarketUS
	if strings.EqualFold(strings.TrimSpace(fallback), string(models.MarketIndian)) {
		m = models.MarketIndian
	}
	return &Detector{fallback: m}
}

// Detect returns the market of symbol. It never fails.
func (d *Detector) Detect(symbol string) models.Market {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if hasIndianSuffix(upper) {
		return models.MarketIndian
	}
	for _, name := range indianNames {
		if strings.Contains(upper, name) {
			return models.MarketIndian
		}
	}
	return d.fallback
}

// SearchSymbol returns the provider search form of symbol: upper-cased, and
// suffixed .NS for INDIAN symbols that carry no exchange suffix.
func (d *Detector) SearchSymbol(symbol string, market models.Market) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if market != models.MarketIndian {
		return upper
	}
	switch {
	case strings.HasSuffix(upper, ".NSC"):
		return strings.TrimSuffix(upper, ".NSC") + ".NS"
	case strings.HasSuffix(upper, ".BSC"):
		return strings.TrimSuffix(upper, ".BSC") + ".BO"
	case hasIndianSuffix(upper):
		return upper
	}
	return upper + ".NS"
}

// BaseSymbol strips the exchange suffix and applies the NSE symbol mapping
func BaseSymbol(symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range indianSuffixes {
		if strings.HasSuffix(upper, suffix) {
			upper = strings.TrimSuffix(upper, suffix)
			break
		}
	}
	if mapped, ok := nseSymbols[upper]; ok {
		return mapped
	}
	return upper
}

func hasIndianSuffix(upper string) bool {
	for _, suffix := range indianSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

// Ensure Detector implements MarketDetector
var _ interfaces.MarketDetector = (*Detector)(nil)
