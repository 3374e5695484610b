// Package chart renders PNG charts for bias reports and portfolio digests
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/bias"
)

// ErrNoPrices is returned when a report has no usable price to draw
var ErrNoPrices = errors.New("no usable prices to chart")

var palette = []drawing.Color{
	drawing.ColorFromHex("2563eb"), // blue-600
	drawing.ColorFromHex("16a34a"), // green-600
	drawing.ColorFromHex("f59e0b"), // amber-500
	drawing.ColorFromHex("dc2626"), // red-600
	drawing.ColorFromHex("7c3aed"), // violet-600
	drawing.ColorFromHex("0891b2"), // cyan-600
}

// Service implements ChartService
type Service struct{}

// NewService creates a chart service
func NewService() *Service {
	return &Service{}
}

// BiasChart renders one bar per source price of a bias report
func (s *Service) BiasChart(report *models.BiasCheckReport) ([]byte, error) {
	bars := make([]chart.Value, 0, len(report.Sources))
	for _, src := range report.Sources {
		price, ok := bias.Price(src)
		if !ok {
			continue
		}
		color := palette[len(bars)%len(palette)]
		bars = append(bars, chart.Value{
			Label: src.Source,
			Value: price,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoPrices
	}

	currency := "$"
	if report.Market == models.MarketIndian {
		currency = "Rs "
	}

	graph := chart.BarChart{
		Title:  fmt.Sprintf("%s price by source (bias %.3f, %s)", report.Symbol, report.BiasScore, report.ConfidenceLevel),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth: 80,
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%s%.2f", currency, f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	if len(bars) == 1 {
		// a single bar gives the axis no range to work with
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: bars[0].Value * 1.1}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// AllocationChart renders a pie of holding weights labelled by symbol
func (s *Service) AllocationChart(holdings []models.HoldingAnalysis) ([]byte, error) {
	values := make([]chart.Value, 0, len(holdings))
	for i, h := range holdings {
		if h.Weight <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", h.Symbol, h.Weight*100),
			Value: h.Weight,
			Style: chart.Style{FillColor: palette[i%len(palette)]},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoPrices
	}

	graph := chart.PieChart{
		Title:  "Allocation",
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure Service implements ChartService
var _ interfaces.ChartService = (*Service)(nil)
