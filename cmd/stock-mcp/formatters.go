package main

import (
	"fmt"
	"strings"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// currencySymbol picks the display currency for a market
func currencySymbol(m models.Market) string {
	if m == models.MarketIndian {
		return "₹"
	}
	return "$"
}

func formatPrice(m models.Market, p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%s%.2f", currencySymbol(m), *p)
}

func formatSignedPct(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// writeBiasMetric renders the bias block shared by several tools
func writeBiasMetric(sb *strings.Builder, m models.Market, b models.BiasMetric) {
	sb.WriteString(fmt.Sprintf("**Bias Score:** %.3f (%s confidence, %d sources)\n", b.Score, b.Confidence, b.Sources))
	if b.PriceRange != nil {
		cur := currencySymbol(m)
		sb.WriteString(fmt.Sprintf("**Price Range:** %s%.2f - %s%.2f (mean %s%.2f)\n",
			cur, b.PriceRange.Min, cur, b.PriceRange.Max, cur, b.PriceRange.Mean))
	}
}

// formatStockAnalysis formats a stock analysis as markdown
func formatStockAnalysis(a *models.StockAnalysis) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s (%s)\n\n", a.Symbol, a.Market))
	writeBiasMetric(&sb, a.Market, a.BiasMetrics)
	sb.WriteString("\n")

	if len(a.Sources) > 0 {
		sb.WriteString("## Sources\n\n")
		sb.WriteString("| Source | Reliability | Price | Change % |\n")
		sb.WriteString("|--------|-------------|-------|----------|\n")
		for _, s := range a.Sources {
			change := "-"
			if s.Data.ChangePercent != nil {
				change = formatSignedPct(*s.Data.ChangePercent)
			}
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %s |\n", s.Name, s.Reliability, formatPrice(a.Market, s.Data.Price), change))
		}
		sb.WriteString("\n")
	}

	if a.AIAnalysis != "" {
		sb.WriteString("## Analysis\n\n")
		sb.WriteString(a.AIAnalysis)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatBiasCheck formats a bias check report as markdown
func formatBiasCheck(r *models.BiasCheckReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Bias Check: %s (%s)\n\n", r.Symbol, r.Market))
	sb.WriteString(fmt.Sprintf("**Bias Score:** %.3f\n", r.BiasScore))
	sb.WriteString(fmt.Sprintf("**Confidence:** %s\n", r.ConfidenceLevel))
	sb.WriteString(fmt.Sprintf("**Sources:** %d\n", r.SourceCount))
	if pc := r.PriceConsistency; pc != nil {
		cur := currencySymbol(r.Market)
		sb.WriteString(fmt.Sprintf("**Price Spread:** %s%.2f - %s%.2f\n", cur, pc.Min, cur, pc.Max))
	}

	if len(r.SourceErrors) > 0 {
		sb.WriteString("\n## Failed Sources\n\n")
		for _, e := range r.SourceErrors {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", e.Source, e.Kind))
		}
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			sb.WriteString("- " + rec + "\n")
		}
	}

	if r.BiasAnalysis != "" {
		sb.WriteString("\n## Analysis\n\n")
		sb.WriteString(r.BiasAnalysis)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatSentiment formats a news sentiment report as markdown
func formatSentiment(r *models.SentimentReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# News Sentiment: %s (%s)\n\n", r.Symbol, r.Market))
	sb.WriteString(fmt.Sprintf("**Articles:** %d (%s)\n\n", r.NewsSources, r.BiasConsiderations.TemporalBias))

	if len(r.Headlines) > 0 {
		sb.WriteString("## Headlines\n\n")
		for _, h := range r.Headlines {
			line := "- " + h.Headline
			if h.Source != "" {
				line += " (" + h.Source + ")"
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	if r.SentimentAnalysis != "" {
		sb.WriteString("## Analysis\n\n")
		sb.WriteString(r.SentimentAnalysis)
		sb.WriteString("\n\n")
	}
	if rec := r.BiasConsiderations.Recommendation; rec != "" {
		sb.WriteString("*" + rec + "*\n")
	}
	return sb.String()
}

// formatComparison formats a cross-market comparison as markdown
func formatComparison(c *models.Comparison) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s vs %s\n\n", c.USStock.Symbol, c.IndianStock.Symbol))
	sb.WriteString("| Stock | Sources | Bias Score | Confidence |\n")
	sb.WriteString("|-------|---------|------------|------------|\n")
	for _, s := range []models.ComparedStock{c.USStock, c.IndianStock} {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.3f | %s |\n", s.Symbol, s.Sources, s.Bias.Score, s.Bias.Confidence))
	}
	sb.WriteString("\n## Cross-Market Considerations\n\n")
	sb.WriteString("- **Currency:** " + c.CrossMarket.CurrencyConsideration + "\n")
	sb.WriteString("- **Regulation:** " + c.CrossMarket.RegulatoryDifferences + "\n")
	sb.WriteString("- **Market hours:** " + c.CrossMarket.MarketHours + "\n")
	if c.Analysis != "" {
		sb.WriteString("\n## Analysis\n\n")
		sb.WriteString(c.Analysis)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatPortfolioAnalysis formats a portfolio analysis as markdown
func formatPortfolioAnalysis(a *models.PortfolioAnalysis) string {
	var sb strings.Builder
	sb.WriteString("# Portfolio Analysis\n\n")
	sb.WriteString(fmt.Sprintf("**Market Breakdown:** US %.0f%%, INDIAN %.0f%%\n", a.MarketBreakdown.US*100, a.MarketBreakdown.Indian*100))
	sb.WriteString(fmt.Sprintf("**Weighted Bias Score:** %.3f\n", a.PortfolioBiasScore.WeightedAverage))
	if a.Risks.CurrencyRisk {
		sb.WriteString("**Currency Risk:** yes (" + a.Risks.RegulatoryRisk + ")\n")
	}
	sb.WriteString("\n")

	if len(a.IndividualHoldings) > 0 {
		sb.WriteString("| Symbol | Market | Weight | Sources | Bias Score | Confidence |\n")
		sb.WriteString("|--------|--------|--------|---------|------------|------------|\n")
		for _, h := range a.IndividualHoldings {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% | %d | %.3f | %s |\n",
				h.Symbol, h.Market, h.Weight*100, len(h.Sources), h.BiasScore.Score, h.BiasScore.Confidence))
		}
		sb.WriteString("\n")
	}

	if a.Analysis != "" {
		sb.WriteString("## Analysis\n\n")
		sb.WriteString(a.Analysis)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatContentReport formats a content bias report as markdown
func formatContentReport(r *models.ContentReport) string {
	var sb strings.Builder
	sb.WriteString("# Content Bias Check\n\n")
	sb.WriteString(fmt.Sprintf("**Bias Score:** %d/100\n", r.BiasScore))
	sb.WriteString(fmt.Sprintf("**Trust Level:** %s\n", r.TrustLevel))
	if len(r.MentionedStocks) > 0 {
		sb.WriteString("**Mentioned:** " + strings.Join(r.MentionedStocks, ", ") + "\n")
	}
	if len(r.RedFlags) > 0 {
		sb.WriteString("\n## Red Flags\n\n")
		for _, f := range r.RedFlags {
			sb.WriteString("- " + f + "\n")
		}
	}
	if r.AIAnalysis != "" {
		sb.WriteString("\n## Analysis\n\n")
		sb.WriteString(r.AIAnalysis)
		sb.WriteString("\n")
	}
	if r.Recommendation != "" {
		sb.WriteString("\n**Recommendation:** " + r.Recommendation + "\n")
	}
	return sb.String()
}

// formatStory formats a stock story as markdown
func formatStory(s *models.StoryReport) string {
	var sb strings.Builder
	cur := currencySymbol(s.Market)
	sb.WriteString(fmt.Sprintf("# The Story of %s\n\n", s.Symbol))
	sb.WriteString(fmt.Sprintf("**Price:** %s%.2f (%s)\n", cur, s.CurrentPrice, formatSignedPct(s.ChangePercent)))
	sb.WriteString(fmt.Sprintf("**Style:** %s\n", s.StoryStyle))
	if s.StoryAudio != nil {
		sb.WriteString("**Audio:** " + *s.StoryAudio + "\n")
	}
	sb.WriteString("\n")

	acts := []struct{ title, text string }{
		{"Act 1: The Setup", s.StoryContent.Setup},
		{"Act 2: Where It Stands", s.StoryContent.CurrentSituation},
		{"Act 3: The Conflict", s.StoryContent.Conflict},
		{"Act 4: The Strengths", s.StoryContent.Strengths},
		{"Act 5: The Verdict", s.StoryContent.Verdict},
	}
	for _, act := range acts {
		if act.text == "" {
			continue
		}
		sb.WriteString("## " + act.title + "\n\n" + act.text + "\n\n")
	}

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("### " + title + "\n\n")
		for _, item := range items {
			sb.WriteString("- " + item + "\n")
		}
		sb.WriteString("\n")
	}
	writeList("Buy if", s.DecisionFramework.BuyIf)
	writeList("Don't buy if", s.DecisionFramework.NoIf)
	writeList("Maybe if", s.DecisionFramework.MaybeIf)

	return sb.String()
}
