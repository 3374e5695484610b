package market

import (
	"testing"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

func TestDetect(t *testing.T) {
	d := NewDetector("US")
	tests := []struct {
		symbol string
		want   models.Market
	}{
		{"AAPL", models.MarketUS},
		{"msft", models.MarketUS},
		{"RELIANCE", models.MarketIndian},
		{"reliance", models.MarketIndian},
		{"SBIN.NS", models.MarketIndian},
		{"500325.BO", models.MarketIndian},
		{"TATAMOTORS", models.MarketIndian},
		{"HDFCBANK", models.MarketIndian},
		{"ITC.NSC", models.MarketIndian},
		{"GOOGL", models.MarketUS},
	}
	for _, tt := range tests {
		if got := d.Detect(tt.symbol); got != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.symbol, got, tt.want)
		}
	}
}

func TestDetect_ConfiguredFallback(t *testing.T) {
	if got := NewDetector("indian").Detect("ZOMATO"); got != models.MarketIndian {
		t.Errorf("expected INDIAN fallback, got %s", got)
	}
	if got := NewDetector("bogus").Detect("ZOMATO"); got != models.MarketUS {
		t.Errorf("expected US for unknown fallback value, got %s", got)
	}
}

func TestSearchSymbol(t *testing.T) {
	d := NewDetector("US")
	tests := []struct {
		symbol string
		market models.Market
		want   string
	}{
		{"reliance", models.MarketIndian, "RELIANCE.NS"},
		{"TCS.NS", models.MarketIndian, "TCS.NS"},
		{"500325.BO", models.MarketIndian, "500325.BO"},
		{"ITC.NSC", models.MarketIndian, "ITC.NS"},
		{"aapl", models.MarketUS, "AAPL"},
	}
	for _, tt := range tests {
		if got := d.SearchSymbol(tt.symbol, tt.market); got != tt.want {
			t.Errorf("SearchSymbol(%q, %s) = %q, want %q", tt.symbol, tt.market, got, tt.want)
		}
	}
}

func TestBaseSymbol(t *testing.T) {
	tests := map[string]string{
		"INFOSYS.NS":       "INFY",
		"ADANITOTALGAS.NS": "ATGL",
		"M&M.NS":           "MM",
		"KALYANJEWL.NS":    "KALYANKJ",
		"BAJAJ-AUTO.NS":    "BAJAJ-AUTO",
		"reliance.ns":      "RELIANCE",
		"TCS":              "TCS",
		"SBIN.BO":          "SBIN",
	}
	for in, want := range tests {
		if got := BaseSymbol(in); got != want {
			t.Errorf("BaseSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
