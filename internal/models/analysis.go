package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData is matched by NoDataError when no provider returned a usable quote
var ErrNoData = errors.New("no data available for this symbol")

// NoDataError reports an aggregation that produced no records
type NoDataError struct {
	Symbol string
	Market Market
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data available for %s (%s)", e.Symbol, e.Market)
}

func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// SourceSummary is the public view of a SourceRecord
type SourceSummary struct {
	Name        string  `json:"name"`
	Reliability float64 `json:"reliability"`
	Market      Market  `json:"market"`
	Data        Quote   `json:"data"`
}

// Methodology describes how an analysis was produced
type Methodology struct {
	DataAggregation string `json:"data_aggregation"`
	BiasDetection   string `json:"bias_detection"`
	AIReasoning     string `json:"ai_reasoning"`
}

// StockAnalysis is the single-stock analysis result
type StockAnalysis struct {
	Symbol      string          `json:"symbol"`
	Market      Market          `json:"market"`
	Timestamp   time.Time       `json:"timestamp"`
	BiasMetrics BiasMetric      `json:"bias_metrics"`
	Sources     []SourceSummary `json:"sources"`
	AIAnalysis  string          `json:"ai_analysis"`
	Methodology Methodology     `json:"methodology"`
}

// BiasCheckReport is the data-quality report for one symbol
type BiasCheckReport struct {
	Symbol           string         `json:"symbol"`
	Market           Market         `json:"market"`
	BiasScore        float64        `json:"bias_score"`
	ConfidenceLevel  string         `json:"confidence_level"`
	SourceCount      int            `json:"source_count"`
	PriceConsistency *PriceRange    `json:"price_consistency"`
	BiasAnalysis     string         `json:"bias_analysis"`
	Recommendations  []string       `json:"recommendations"`
	SourceErrors     []*FetchError  `json:"source_errors"`
	Sources          []SourceRecord `json:"-"`
	Timestamp        time.Time      `json:"timestamp"`
}

// ComparedStock is one side of a cross-market comparison
type ComparedStock struct {
	Symbol  string     `json:"symbol"`
	Sources int        `json:"sources"`
	Bias    BiasMetric `json:"bias"`
}

// CrossMarketInsights lists the structural differences between the two markets
type CrossMarketInsights struct {
	CurrencyConsideration string `json:"currency_consideration"`
	RegulatoryDifferences string `json:"regulatory_differences"`
	MarketHours           string `json:"market_hours"`
}

// Comparison is the result of comparing a US and an Indian stock
type Comparison struct {
	Analysis    string              `json:"comparison_analysis"`
	USStock     ComparedStock       `json:"us_stock"`
	IndianStock ComparedStock       `json:"indian_stock"`
	CrossMarket CrossMarketInsights `json:"cross_market_insights"`
	Timestamp   time.Time           `json:"timestamp"`
}

// BiasConsiderations qualifies a sentiment analysis
type BiasConsiderations struct {
	SourceDiversity       bool   `json:"source_diversity"`
	TemporalBias          string `json:"temporal_bias"`
	MarketSpecificFactors string `json:"market_specific_factors"`
	Recommendation        string `json:"recommendation"`
}

// SentimentReport is the news sentiment analysis of one symbol
type SentimentReport struct {
	Symbol             string             `json:"symbol"`
	Market             Market             `json:"market"`
	SentimentAnalysis  string             `json:"sentiment_analysis"`
	NewsSources        int                `json:"news_sources"`
	Headlines          []NewsItem         `json:"headlines"`
	BiasConsiderations BiasConsiderations `json:"bias_considerations"`
	Timestamp          time.Time          `json:"timestamp"`
}

// ContentReport is the bias analysis of a piece of financial content
type ContentReport struct {
	ContentPreview  string    `json:"content_preview"`
	BiasScore       int       `json:"bias_score"`
	TrustLevel      string    `json:"trust_level"`
	RedFlags        []string  `json:"red_flags"`
	MentionedStocks []string  `json:"mentioned_stocks"`
	MarketDataCheck bool      `json:"market_data_check"`
	AIAnalysis      string    `json:"ai_analysis"`
	Recommendation  string    `json:"recommendation"`
	Timestamp       time.Time `json:"timestamp"`
}

// StoryReport is a narrated stock story
type StoryReport struct {
	Symbol            string            `json:"symbol"`
	CurrentPrice      float64           `json:"currentPrice"`
	Change            float64           `json:"change"`
	ChangePercent     float64           `json:"changePercent"`
	Market            Market            `json:"market"`
	StoryStyle        string            `json:"storyStyle"`
	StoryContent      StoryActs         `json:"storyContent"`
	StoryAudio        *string           `json:"storyAudio"`
	DecisionFramework DecisionFramework `json:"decisionFramework"`
	BiasCheck         StoryBiasCheck    `json:"biasCheck"`
	Metrics           StoryMetrics      `json:"metrics"`
	Timestamp         time.Time         `json:"timestamp"`
}
