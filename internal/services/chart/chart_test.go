package chart

import (
	"bytes"
	"errors"
	"testing"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestBiasChart_RendersPNG(t *testing.T) {
	report := &models.BiasCheckReport{
		Symbol:          "TCS.NS",
		Market:          models.MarketIndian,
		BiasScore:       0.001,
		ConfidenceLevel: models.ConfidenceHigh,
		Sources: []models.SourceRecord{
			{Source: "Yahoo Finance India", Data: models.Quote{Price: models.Float(4120.5)}},
			{Source: "NSE India", Data: models.Quote{Price: models.Float(4121)}},
		},
	}
	png, err := NewService().BiasChart(report)
	if err != nil {
		t.Fatalf("BiasChart failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("expected PNG output")
	}
}

func TestBiasChart_SingleSource(t *testing.T) {
	report := &models.BiasCheckReport{
		Symbol: "AAPL",
		Sources: []models.SourceRecord{
			{Source: "Finnhub", Data: models.Quote{Price: models.Float(186.1)}},
		},
	}
	if _, err := NewService().BiasChart(report); err != nil {
		t.Fatalf("BiasChart failed: %v", err)
	}
}

func TestBiasChart_PreviousCloseIsNotAPrice(t *testing.T) {
	report := &models.BiasCheckReport{
		Symbol: "AAPL",
		Sources: []models.SourceRecord{
			{Source: "Finnhub", Data: models.Quote{PreviousClose: models.Float(186.1)}},
		},
	}
	_, err := NewService().BiasChart(report)
	if !errors.Is(err, ErrNoPrices) {
		t.Errorf("err = %v, want ErrNoPrices", err)
	}
}

func TestBiasChart_NoPrices(t *testing.T) {
	_, err := NewService().BiasChart(&models.BiasCheckReport{Symbol: "ZZZZ"})
	if !errors.Is(err, ErrNoPrices) {
		t.Errorf("err = %v, want ErrNoPrices", err)
	}
}

func TestAllocationChart(t *testing.T) {
	png, err := NewService().AllocationChart([]models.HoldingAnalysis{
		{Symbol: "AAPL", Weight: 0.5},
		{Symbol: "RELIANCE.NS", Weight: 0.5},
	})
	if err != nil {
		t.Fatalf("AllocationChart failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("expected PNG output")
	}
}
