package narrative

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// CompareRequest is the analysis request of the cross-market comparison
const CompareRequest = "Compare these US and Indian stocks, highlighting market-specific factors and cross-market insights"

// AnalysisPrompt wraps request and its data in the market-aware analyst brief
func AnalysisPrompt(market models.Market, request string, data any) string {
	marketContext := "Consider US market dynamics, SEC regulations, and institutional investor patterns."
	focus := "dollar-denominated returns and US market conditions"
	if market == models.MarketIndian {
		marketContext = "Consider Indian market dynamics, regulatory environment, and local investor behavior patterns."
		focus = "rupee-denominated returns and local market conditions"
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", data))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "As an unbiased financial analyst specializing in %s markets, analyze the following stock data.\n", market)
	b.WriteString(marketContext + "\n\n")
	fmt.Fprintf(&b, "Data: %s\n\n", payload)
	fmt.Fprintf(&b, "Analysis request: %s\n\n", request)
	b.WriteString("Please provide:\n")
	b.WriteString("1. Objective summary of current metrics\n")
	b.WriteString("2. Market-specific risk assessment (regulatory, currency, political factors)\n")
	fmt.Fprintf(&b, "3. Key factors to monitor for %s markets\n", market)
	b.WriteString("4. Potential biases in the data or common market misconceptions\n")
	b.WriteString("5. Multiple scenarios (bull, bear, neutral cases)\n")
	b.WriteString("6. Cross-market comparison insights if relevant\n\n")
	b.WriteString("Maintain analytical objectivity and highlight uncertainties.\n")
	fmt.Fprintf(&b, "Focus on %s.\n", focus)
	return b.String()
}

// StockRequest is the single-stock analysis request
func StockRequest(analysisType, symbol string) string {
	return fmt.Sprintf("Provide %s analysis for %s", analysisType, symbol)
}

// PortfolioRequest is the portfolio analysis request
func PortfolioRequest(analysisType string, breakdown models.MarketBreakdown) string {
	var parts []string
	if breakdown.US > 0 {
		parts = append(parts, "US stocks")
	}
	if breakdown.Indian > 0 {
		parts = append(parts, "Indian stocks")
	}
	return fmt.Sprintf("Analyze this portfolio for %s.\nPortfolio includes %s.\n"+
		"Consider currency risk, market correlation, regulatory differences, and potential biases in individual holdings.",
		analysisType, strings.Join(parts, " and "))
}

// SentimentRequest is the news sentiment request
func SentimentRequest(market models.Market) string {
	landscape := "US media landscape and institutional sentiment patterns"
	if market == models.MarketIndian {
		landscape = "Indian media landscape and local investor sentiment patterns"
	}
	return fmt.Sprintf("Analyze market sentiment for this %s stock and identify potential media bias in coverage.\nConsider %s.", market, landscape)
}

// BiasRequest is the data-quality review request
func BiasRequest(market models.Market) string {
	return fmt.Sprintf("Identify potential biases, data quality issues, and reliability concerns in this %s market stock data.\n"+
		"Consider market-specific factors that could introduce bias.", market)
}

// ContentRequest asks for a manipulation review of content against market data
func ContentRequest(content string) string {
	return fmt.Sprintf(`Analyze this financial content for bias, manipulation tactics, and misleading claims.
Compare the claims with actual market data provided.

Content to analyze: %q

Provide:
1. Bias Score (0-100, where 100 = extremely biased)
2. Specific manipulation tactics identified
3. Claims vs reality comparison
4. Red flags found
5. The opposite viewpoint that's being hidden`, content)
}

// ClarityRequest is the brutally honest portfolio review request
func ClarityRequest(summary models.PortfolioSummary, health float64, anxiety int, holdings []models.ClarityHolding) string {
	var b strings.Builder
	b.WriteString("You are a brutally honest financial advisor. Analyze this portfolio and provide a CLARITY report.\n\n")
	b.WriteString("Portfolio Data:\n")
	fmt.Fprintf(&b, "- Total Invested: ₹%s\n", FormatINR(summary.TotalInvested))
	fmt.Fprintf(&b, "- Current Value: ₹%s\n", FormatINR(summary.CurrentValue))
	fmt.Fprintf(&b, "- Total P&L: ₹%s (%.2f%%)\n", FormatINR(summary.TotalPnL), summary.TotalPnLPercent)
	fmt.Fprintf(&b, "- Losing Stocks: %d out of %d\n", summary.LosingPositions, summary.TotalPositions)
	fmt.Fprintf(&b, "- Health Score: %.1f/10\n", health)
	fmt.Fprintf(&b, "- Anxiety Score: %d/10\n\n", anxiety)
	b.WriteString("Holdings:\n")
	for _, h := range holdings {
		fmt.Fprintf(&b, "%s: Invested ₹%s, Current ₹%s, P&L: %s%%\n",
			h.Symbol, FormatINR(h.Invested), FormatINR(h.CurrentValue), strconv.FormatFloat(h.PnLPercent, 'f', -1, 64))
	}
	b.WriteString(`
INSTRUCTIONS:
1. Be BRUTALLY HONEST - no sugar coating
2. Identify the ONE biggest problem with this portfolio
3. Give ONE clear actionable fix (sell X, buy Y)
4. Explain in simple language WHY the losing stocks are losing
5. Predict what will happen if they don't take action
6. Compare their performance to simple Nifty 50 index
7. Make it personal - talk directly to them
8. Maximum 250 words

Write like you're their friend who's tired of watching them lose money.`)
	return b.String()
}

var stylePrompts = map[string]string{
	models.StyleBedtime: "Write in a calm, simple narrative style like a bedtime story. Use gentle language and easy analogies.",
	models.StyleMovie:   "Write in a dramatic, exciting style like a movie script with acts and scenes. Make it engaging and suspenseful.",
	models.StyleTeacher: "Write in an educational style with clear explanations and teaching moments. Be detailed but understandable.",
	models.StyleELI5:    "Explain everything like you're talking to a 5-year-old. Use very simple words and everyday examples.",
	models.StyleFacts:   "Present just the facts in a straightforward, data-driven manner without storytelling elements.",
}

// NormalizeStyle returns style when it is known and movie otherwise
func NormalizeStyle(style string) string {
	style = strings.ToLower(strings.TrimSpace(style))
	if _, ok := stylePrompts[style]; ok {
		return style
	}
	return models.StyleMovie
}

// StoryPrompt asks for the five act story of a stock as a JSON object
func StoryPrompt(symbol string, market models.Market, price, change, changePercent float64, style string) string {
	currency := "$"
	if market == models.MarketIndian {
		currency = "₹"
	}
	sign := ""
	if change >= 0 {
		sign = "+"
	}

	var b strings.Builder
	b.WriteString("You are a master storyteller who makes stock investing accessible to everyone.\n\n")
	fmt.Fprintf(&b, "Stock: %s\n", symbol)
	fmt.Fprintf(&b, "Current Price: %s%.2f\n", currency, price)
	fmt.Fprintf(&b, "Change: %s%.2f (%.2f%%)\n", sign, change, changePercent)
	fmt.Fprintf(&b, "Market: %s\n\n", market)
	fmt.Fprintf(&b, "Style: %s\n\n", stylePrompts[NormalizeStyle(style)])
	b.WriteString("Create a comprehensive story in five acts:\n\n")
	b.WriteString("setup - ACT 1: THE SETUP (Who is this company?) Introduce the company like a character in a story. When did they start? What do they do? Use analogies to explain their business model in simple terms.\n")
	fmt.Fprintf(&b, "currentSituation - ACT 2: THE CURRENT SITUATION. Explain where the stock stands today. What does the current price of %s%.2f really mean? Explain key metrics like P/E ratio, ROE, Debt/Equity using real-world analogies.\n", currency, price)
	b.WriteString("conflict - ACT 3: THE CONFLICT (The Risks). What could go wrong? What are the biggest risks? Competition? Economy? Management issues? Be honest and specific.\n")
	b.WriteString("strengths - ACT 4: THE STRENGTHS. What makes this company strong? Why do people still believe in it? What are its competitive advantages?\n")
	b.WriteString("verdict - ACT 5: THE VERDICT. Tie everything together. Is this a safe play, a risky bet, or somewhere in between? Be balanced and honest.\n\n")
	b.WriteString(`CRITICAL RULES:
1. Write for someone with ZERO financial knowledge
2. Use analogies for every complex concept (P/E = buying a shop, ROE = return on your money, etc.)
3. Be conversational and engaging
4. NO jargon without explanation
5. Make it personal ("imagine you..." "think of it like...")
6. Keep paragraphs short and readable
7. Be brutally honest about risks AND strengths
8. Each act should be 150-200 words

Return ONLY a JSON object with the string keys "setup", "currentSituation", "conflict", "strengths" and "verdict". Each value is plain narrative text without markdown.`)
	return b.String()
}

// DecisionPrompt asks for the buy, avoid and consider reasons as a JSON object
func DecisionPrompt(symbol string) string {
	return fmt.Sprintf(`Based on the stock %s analysis, provide a simple decision framework.

Give 3-4 clear, specific reasons for each category:
1. YES, BUY IF: (When should someone buy this stock?)
2. NO, DON'T BUY IF: (When should someone avoid this stock?)
3. MAYBE, CONSIDER IF: (Middle ground scenarios)

Make each reason one clear sentence. Be specific and actionable.
Return ONLY a JSON object of the form {"buyIf": ["..."], "noIf": ["..."], "maybeIf": ["..."]}.`, symbol)
}

// ExtractionPrompt asks a vision model for the holdings visible in a portfolio screenshot
const ExtractionPrompt = `Analyze this portfolio statement/screenshot and extract the following information:

1. List all stock holdings visible
2. For each holding, extract:
   - Stock symbol/name (convert to NSE symbol format like RELIANCE.NS, TCS.NS)
   - Quantity/shares held
   - Average buy price or invested amount
   - Current price
   - Current value
   - Profit/Loss amount and percentage

3. Calculate or extract:
   - Total portfolio invested amount
   - Total current value
   - Overall P&L

Return the data in this EXACT JSON format:
{
  "holdings": [
    {
      "symbol": "RELIANCE.NS",
      "quantity": 100,
      "invested": 250000,
      "currentValue": 280000,
      "pnl": 30000,
      "pnlPercent": 12.0
    }
  ],
  "summary": {
    "totalInvested": 500000,
    "totalCurrentValue": 520000,
    "totalPnL": 20000,
    "totalPnLPercent": 4.0
  }
}

If you cannot extract some values, use reasonable estimates based on visible data.
For Indian stocks, always add .NS suffix (NSE) or .BO (BSE) to symbols.
Be precise with numbers - extract exact values shown in the image.`

// StatementPrompt asks for the holdings contained in the text of a broker statement
func StatementPrompt(text string) string {
	prompt := strings.Replace(ExtractionPrompt, "this portfolio statement/screenshot", "the following broker statement text", 1)
	prompt = strings.Replace(prompt, "exact values shown in the image", "exact values shown in the statement", 1)
	return prompt + "\n\nStatement text:\n" + text
}

// FormatINR formats v with Indian digit grouping (12,34,567.5), dropping trailing zero decimals
func FormatINR(v float64) string {
	neg := v < 0
	v = math.Abs(v)
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(groups, ",") + "," + tail
	}

	if neg {
		return "-" + intPart + frac
	}
	return intPart + frac
}
