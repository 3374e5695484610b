package digest

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// Weights converts subscriber holdings into weighted holdings by current value.
// Weights are rounded to four places. Holdings are dropped when the total is zero.
func Weights(holdings []models.SubscriptionHolding) []models.Holding {
	total := 0.0
	for _, h := range holdings {
		total += h.CurrentValue
	}
	if total <= 0 {
		return nil
	}

	out := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		value := h.CurrentValue
		out = append(out, models.Holding{
			Symbol:       h.Symbol,
			Name:         h.Name,
			Weight:       math.Round(h.CurrentValue/total*10000) / 10000,
			Quantity:     h.Quantity,
			Invested:     h.TotalInvested,
			CurrentValue: &value,
		})
	}
	return out
}

// Markdown renders the report body for one subscriber
func Markdown(sub *models.Subscription, analysis *models.PortfolioAnalysis, date time.Time, unsubscribeURL string) string {
	var b strings.Builder

	name := sub.Name
	if name == "" {
		name = sub.Email
	}

	fmt.Fprintf(&b, "# ClearStock Daily Portfolio Report\n\n")
	fmt.Fprintf(&b, "Prepared for **%s** on %s\n\n", name, date.Format("Monday, 2 January 2006"))

	b.WriteString("## Market Breakdown\n\n")
	b.WriteString("| Market | Weight |\n|---|---|\n")
	fmt.Fprintf(&b, "| US | %.1f%% |\n", analysis.MarketBreakdown.US*100)
	fmt.Fprintf(&b, "| INDIAN | %.1f%% |\n\n", analysis.MarketBreakdown.Indian*100)

	b.WriteString("## Holdings\n\n")
	b.WriteString("| Symbol | Market | Weight | Sources | Data Quality | Confidence |\n|---|---|---|---|---|---|\n")
	for _, h := range analysis.IndividualHoldings {
		fmt.Fprintf(&b, "| %s | %s | %.1f%% | %d | %.2f | %s |\n",
			h.Symbol, h.Market, h.Weight*100, h.BiasScore.Sources, h.BiasScore.Score, h.BiasScore.Confidence)
	}
	b.WriteString("\n")

	b.WriteString("## Data Quality\n\n")
	fmt.Fprintf(&b, "- Weighted data quality score: %.2f\n", analysis.PortfolioBiasScore.WeightedAverage)
	fmt.Fprintf(&b, "- Diversified across holdings: %s\n", yesNo(analysis.PortfolioBiasScore.DiversificationBenefit))
	fmt.Fprintf(&b, "- Cross-market exposure: %s\n\n", yesNo(analysis.PortfolioBiasScore.CrossMarketExposure))

	b.WriteString("## Risks\n\n")
	fmt.Fprintf(&b, "- Currency risk: %s\n", yesNo(analysis.Risks.CurrencyRisk))
	fmt.Fprintf(&b, "- Regulatory: %s\n", analysis.Risks.RegulatoryRisk)
	fmt.Fprintf(&b, "- Data quality variance: %s\n\n", yesNo(analysis.Risks.DataQualityVariance))

	b.WriteString("## Analysis\n\n")
	b.WriteString(strings.TrimSpace(analysis.Analysis))
	b.WriteString("\n\n---\n\n")

	b.WriteString("_Not investment advice. Figures come from public market data sources and may be delayed._\n\n")
	if unsubscribeURL != "" {
		fmt.Fprintf(&b, "[Unsubscribe](%s)\n", unsubscribeURL)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// HTML converts the markdown report into an email-ready HTML document
func HTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return `<!DOCTYPE html><html><head><meta charset="utf-8"/>` +
		`<style>body{font-family:Arial,sans-serif;color:#1f2937;max-width:720px;margin:0 auto;padding:16px}` +
		`table{border-collapse:collapse;width:100%}th,td{border:1px solid #e5e7eb;padding:6px;text-align:left}` +
		`th{background:#f3f4f6}</style></head><body>` + buf.String() + `</body></html>`, nil
}

// PDF renders a printable copy of the report. chartPNG is optional.
func PDF(sub *models.Subscription, analysis *models.PortfolioAnalysis, date time.Time, chartPNG []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("ClearStock Daily Portfolio Report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "ClearStock Daily Portfolio Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - %s", sub.Email, date.Format("2 Jan 2006"))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Holdings", "", 1, "L", false, 0, "")

	widths := []float64{40, 30, 30, 30, 50}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(243, 244, 246)
	for i, title := range []string{"Symbol", "Market", "Weight", "Sources", "Data Quality"} {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, h := range analysis.IndividualHoldings {
		pdf.CellFormat(widths[0], 6, tr(h.Symbol), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, string(h.Market), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.1f%%", h.Weight*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%d", h.BiasScore.Sources), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f (%s)", h.BiasScore.Score, h.BiasScore.Confidence), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	if len(chartPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("allocation", opts, bytes.NewReader(chartPNG))
		if pdf.Ok() {
			pdf.ImageOptions("allocation", 45, pdf.GetY(), 120, 0, true, opts, 0, "")
			pdf.Ln(4)
		}
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Analysis", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(strings.TrimSpace(analysis.Analysis)), "", "L", false)

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 4, "Not investment advice. Figures come from public market data sources and may be delayed.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
