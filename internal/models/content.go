package models

// Content trust levels
const (
	TrustTrusted  = "✅ TRUSTED"
	TrustCaution  = "⚠️ CAUTION"
	TrustHighBias = "❌ HIGH BIAS"
)

// ContentBias is the keyword-based manipulation score of a piece of financial content
type ContentBias struct {
	Score          int      `json:"score"`
	TrustLevel     string   `json:"trust_level"`
	RedFlags       []string `json:"red_flags"`
	Recommendation string   `json:"recommendation"`
}

// Story styles
const (
	StyleBedtime = "bedtime"
	StyleMovie   = "movie"
	StyleTeacher = "teacher"
	StyleELI5    = "eli5"
	StyleFacts   = "facts"
)

// StoryActs is a stock story split into its five acts
type StoryActs struct {
	Setup            string `json:"setup"`
	CurrentSituation string `json:"currentSituation"`
	Conflict         string `json:"conflict"`
	Strengths        string `json:"strengths"`
	Verdict          string `json:"verdict"`
}

// DecisionFramework lists when buying makes sense and when it does not
type DecisionFramework struct {
	BuyIf   []string `json:"buyIf"`
	NoIf    []string `json:"noIf"`
	MaybeIf []string `json:"maybeIf"`
}

// StoryBiasCheck is the disclosure block attached to every story
type StoryBiasCheck struct {
	Ownership   string   `json:"ownership"`
	DataSources []string `json:"dataSources"`
	Methodology string   `json:"methodology"`
}

// StoryMetrics holds valuation ratios. The quote providers do not report them, so they stay nil.
type StoryMetrics struct {
	PE         *float64 `json:"pe"`
	ROE        *float64 `json:"roe"`
	DebtEquity *float64 `json:"debtEquity"`
}
