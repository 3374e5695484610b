package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/narrative"
)

// Index fund comparison: 12% a year over an assumed 8 month holding period
const (
	indexAnnualReturn = 0.12
	holdingMonths     = 8
)

// ResolveHolding fills the money fields of h. Values given by the client win;
// otherwise the current value comes from quantity times the live price.
func ResolveHolding(h models.Holding, livePrice *float64, sources []models.SourceRecord) models.ClarityHolding {
	invested := h.Invested

	currentValue := 0.0
	switch {
	case h.CurrentValue != nil && *h.CurrentValue != 0:
		currentValue = *h.CurrentValue
	case livePrice != nil && h.Quantity != 0:
		currentValue = h.Quantity * *livePrice
	}

	pnl := currentValue - invested
	if h.PnL != nil {
		pnl = *h.PnL
	}

	var pnlPercent float64
	if h.PnLPercent != nil {
		pnlPercent = *h.PnLPercent
	} else {
		base := invested
		if base == 0 {
			base = 1
		}
		pnlPercent = round(pnl/base*100, 2)
	}

	if sources == nil {
		sources = []models.SourceRecord{}
	}
	return models.ClarityHolding{
		Symbol:       h.Symbol,
		Invested:     invested,
		CurrentValue: currentValue,
		PnL:          pnl,
		PnLPercent:   pnlPercent,
		Sources:      sources,
	}
}

// ScoreClarity computes the health, anxiety and truth bomb of resolved holdings.
// FullAnalysis and Timestamp are left for the caller.
func ScoreClarity(holdings []models.ClarityHolding) *models.ClarityReport {
	var totalInvested, totalCurrent float64
	var losers []models.LosingStock
	for _, h := range holdings {
		totalInvested += h.Invested
		totalCurrent += h.CurrentValue
		if h.PnL < 0 {
			losers = append(losers, models.LosingStock{Symbol: h.Symbol, Loss: math.Abs(h.PnL), LossPercent: h.PnLPercent})
		}
	}

	totalPnL := totalCurrent - totalInvested
	totalPnLPercent := 0.0
	if totalInvested != 0 {
		totalPnLPercent = round(totalPnL/totalInvested*100, 2)
	}

	n := len(holdings)
	diversity := math.Min(float64(n)/10, 1) * 3
	pnlScore := math.Max(0, math.Min((totalPnLPercent+50)/10, 4))
	lossScore := math.Max(0, 3-float64(len(losers))*0.5)
	health := round(math.Min(diversity+pnlScore+lossScore, 10), 1)
	label, color := healthLabel(health)

	majorLosses := 0
	for _, l := range losers {
		if l.LossPercent < -20 {
			majorLosses++
		}
	}
	anxiety := min(2*len(losers), 4) + majorLosses
	if totalPnL < 0 {
		anxiety += 3
	}
	if n < 5 {
		anxiety += 2
	}
	anxiety = min(anxiety, 10)

	ifIndexFund := totalInvested * (1 + indexAnnualReturn*holdingMonths/12)

	sort.SliceStable(losers, func(i, j int) bool { return losers[i].LossPercent < losers[j].LossPercent })

	problem := models.BiggestProblem{
		Title:        "Lack of diversification",
		Description:  "Your portfolio is too concentrated. One bad quarter and you're in trouble.",
		LosingStocks: []models.LosingStock{},
	}
	fix := models.TheFix{
		Action:          "Add more diversification. Add 3-5 more quality stocks or index funds.",
		ExpectedOutcome: "Reduce risk, sleep better, match market returns",
		Timeframe:       "1 year",
	}
	if len(losers) > 0 {
		problem = models.BiggestProblem{
			Title:        "Holding losing stocks hoping for recovery",
			Description:  "You have stocks that are bleeding money while you wait for a miracle recovery that probably won't come.",
			LosingStocks: losers[:min(len(losers), 3)],
		}
		fix.Action = fmt.Sprintf("Sell these %d losing positions tomorrow morning. Move to Nifty 50 Index Fund.", len(losers))
		fix.ExpectedOutcome = fmt.Sprintf("Stop losing ₹%s → Start gaining with market returns", narrative.FormatINR(math.Abs(totalPnL)))
	}

	return &models.ClarityReport{
		HealthScore:    health,
		HealthLabel:    label,
		HealthColor:    color,
		AnxietyScore:   anxiety,
		BiggestProblem: problem,
		TheFix:         fix,
		TruthBomb: models.TruthBomb{
			YourLoss:    jsRound(math.Abs(totalPnL)),
			IfIndexFund: jsRound(ifIndexFund - totalInvested),
			Difference:  jsRound(ifIndexFund - totalCurrent),
		},
		PortfolioSummary: models.PortfolioSummary{
			TotalInvested:   totalInvested,
			CurrentValue:    totalCurrent,
			TotalPnL:        totalPnL,
			TotalPnLPercent: totalPnLPercent,
			LosingPositions: len(losers),
			TotalPositions:  n,
		},
		Holdings: holdings,
		NextAction: models.NextAction{
			Reminder: "Set for 9:30 AM tomorrow",
			Message:  "Time to take action. No more waiting.",
		},
	}
}

func healthLabel(health float64) (string, string) {
	switch {
	case health >= 8:
		return "EXCELLENT", "text-green-500"
	case health >= 6:
		return "NEEDS ATTENTION", "text-yellow-500"
	default:
		return "CRITICAL", "text-red-500"
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// jsRound rounds half up toward positive infinity
func jsRound(v float64) float64 {
	return math.Floor(v + 0.5)
}
