package models

import "time"

// Holding is a portfolio position as submitted by a client.
// Optional money fields are pointers so an absent value can be told apart from zero.
type Holding struct {
	Symbol       string   `json:"symbol" validate:"required"`
	Name         string   `json:"name,omitempty"`
	Weight       float64  `json:"weight"`
	Quantity     float64  `json:"quantity,omitempty"`
	Invested     float64  `json:"invested,omitempty"`
	CurrentValue *float64 `json:"currentValue,omitempty"`
	PnL          *float64 `json:"pnl,omitempty"`
	PnLPercent   *float64 `json:"pnlPercent,omitempty"`
}

// MarketBreakdown is the summed weight per market
type MarketBreakdown struct {
	US     float64 `json:"US"`
	Indian float64 `json:"INDIAN"`
}

// Add accumulates weight into the bucket for market
func (b *MarketBreakdown) Add(market Market, weight float64) {
	if market == MarketIndian {
		b.Indian += weight
		return
	}
	b.US += weight
}

// Markets returns how many markets carry a non-zero weight
func (b MarketBreakdown) Markets() int {
	n := 0
	if b.US > 0 {
		n++
	}
	if b.Indian > 0 {
		n++
	}
	return n
}

// HoldingAnalysis is one holding of a portfolio analysis
type HoldingAnalysis struct {
	Symbol    string         `json:"symbol"`
	Weight    float64        `json:"weight"`
	Market    Market         `json:"market"`
	Sources   []SourceRecord `json:"sources"`
	BiasScore BiasMetric     `json:"bias_score"`
}

// PortfolioBiasScore summarizes data quality across the holdings
type PortfolioBiasScore struct {
	WeightedAverage        float64 `json:"weighted_average"`
	DiversificationBenefit bool    `json:"diversification_benefit"`
	CrossMarketExposure    bool    `json:"cross_market_exposure"`
}

// PortfolioRisks lists the structural risks of a portfolio
type PortfolioRisks struct {
	CurrencyRisk        bool   `json:"currency_risk"`
	RegulatoryRisk      string `json:"regulatory_risk"`
	DataQualityVariance bool   `json:"data_quality_variance"`
}

// PortfolioAnalysis is the result of a portfolio analysis run
type PortfolioAnalysis struct {
	Analysis           string             `json:"portfolio_analysis"`
	MarketBreakdown    MarketBreakdown    `json:"market_breakdown"`
	IndividualHoldings []HoldingAnalysis  `json:"individual_holdings"`
	PortfolioBiasScore PortfolioBiasScore `json:"portfolio_bias_score"`
	Risks              PortfolioRisks     `json:"risks"`
	Timestamp          time.Time          `json:"timestamp"`
}

// ClarityHolding is a holding with its resolved money values
type ClarityHolding struct {
	Symbol       string         `json:"symbol"`
	Invested     float64        `json:"invested"`
	CurrentValue float64        `json:"currentValue"`
	PnL          float64        `json:"pnl"`
	PnLPercent   float64        `json:"pnlPercent"`
	Sources      []SourceRecord `json:"sources"`
}

// LosingStock is a holding with a negative P&L
type LosingStock struct {
	Symbol      string  `json:"symbol"`
	Loss        float64 `json:"loss"`
	LossPercent float64 `json:"lossPercent"`
}

// BiggestProblem names the single most damaging portfolio issue
type BiggestProblem struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	LosingStocks []LosingStock `json:"losingStocks"`
}

// TheFix is the single recommended action
type TheFix struct {
	Action          string `json:"action"`
	ExpectedOutcome string `json:"expectedOutcome"`
	Timeframe       string `json:"timeframe"`
}

// TruthBomb compares the portfolio against an index fund over the same period
type TruthBomb struct {
	YourLoss    float64 `json:"yourLoss"`
	IfIndexFund float64 `json:"ifIndexFund"`
	Difference  float64 `json:"difference"`
}

// PortfolioSummary is the portfolio-level money rollup
type PortfolioSummary struct {
	TotalInvested   float64 `json:"totalInvested"`
	CurrentValue    float64 `json:"currentValue"`
	TotalPnL        float64 `json:"totalPnL"`
	TotalPnLPercent float64 `json:"totalPnLPercent"`
	LosingPositions int     `json:"losingPositions"`
	TotalPositions  int     `json:"totalPositions"`
}

// NextAction is the reminder attached to a clarity report
type NextAction struct {
	Reminder string `json:"reminder"`
	Message  string `json:"message"`
}

// ClarityReport is the scored part of a clarity analysis
type ClarityReport struct {
	HealthScore      float64          `json:"healthScore"`
	HealthLabel      string           `json:"healthLabel"`
	HealthColor      string           `json:"healthColor"`
	AnxietyScore     int              `json:"anxietyScore"`
	BiggestProblem   BiggestProblem   `json:"biggestProblem"`
	TheFix           TheFix           `json:"theFix"`
	TruthBomb        TruthBomb        `json:"truthBomb"`
	FullAnalysis     string           `json:"fullAnalysis"`
	PortfolioSummary PortfolioSummary `json:"portfolioSummary"`
	Holdings         []ClarityHolding `json:"holdings"`
	Timestamp        time.Time        `json:"timestamp"`
	NextAction       NextAction       `json:"nextAction"`
}

// ExtractedHolding is one holding read from a screenshot or statement
type ExtractedHolding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	Invested     float64 `json:"invested"`
	CurrentValue float64 `json:"currentValue"`
	PnL          float64 `json:"pnl"`
	PnLPercent   float64 `json:"pnlPercent"`
}

// ExtractedSummary is the portfolio total read from a screenshot or statement
type ExtractedSummary struct {
	TotalInvested     float64 `json:"totalInvested"`
	TotalCurrentValue float64 `json:"totalCurrentValue"`
	TotalPnL          float64 `json:"totalPnL"`
	TotalPnLPercent   float64 `json:"totalPnLPercent"`
}

// ExtractedPortfolio is the structured output of portfolio extraction
type ExtractedPortfolio struct {
	Holdings []ExtractedHolding `json:"holdings"`
	Summary  ExtractedSummary   `json:"summary"`
}
