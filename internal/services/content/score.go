package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// MaxScore caps the reported manipulation score
const MaxScore = 100

type indicator struct {
	words  []string
	points int
	flag   string
}

var indicators = []indicator{
	{
		words:  []string{"moon", "rocket", "🚀", "explosion", "massive", "guaranteed", "sure shot", "pakka", "confirm"},
		points: 15,
		flag:   "Emotional language",
	},
	{
		words:  []string{"urgent", "limited time", "act now", "don't miss", "last chance", "hurry"},
		points: 20,
		flag:   "Urgency manipulation",
	},
	{
		words:  []string{"always", "never", "definitely", "100%", "impossible to lose"},
		points: 25,
		flag:   "Unrealistic claims",
	},
}

var (
	priceTargetRe = regexp.MustCompile(`(?i)target.*\d+`)
	reasoningRe   = regexp.MustCompile(`(?i)analysis|research|because`)
)

// Analyze scores text for manipulation tactics. Each listed word counts once.
// The trust level follows the uncapped score.
func Analyze(text string) models.ContentBias {
	lower := strings.ToLower(text)
	score := 0
	flags := []string{}

	for _, ind := range indicators {
		for _, w := range ind.words {
			if strings.Contains(lower, w) {
				score += ind.points
				flags = append(flags, fmt.Sprintf("%s: %q", ind.flag, w))
			}
		}
	}

	if priceTargetRe.MatchString(text) && !reasoningRe.MatchString(text) {
		score += 30
		flags = append(flags, "Price targets without analysis")
	}
	if strings.ToUpper(text) == text && len([]rune(text)) > 20 {
		score += 20
		flags = append(flags, "Excessive caps (shouting)")
	}
	if strings.Count(text, "!") > 3 {
		score += 10
		flags = append(flags, "Excessive exclamation marks")
	}

	bias := models.ContentBias{Score: min(score, MaxScore), RedFlags: flags}
	switch {
	case score <= 20:
		bias.TrustLevel = models.TrustTrusted
		bias.Recommendation = "Content appears relatively unbiased"
	case score <= 50:
		bias.TrustLevel = models.TrustCaution
		bias.Recommendation = "Some bias detected - verify claims independently"
	default:
		bias.TrustLevel = models.TrustHighBias
		bias.Recommendation = "High manipulation risk - avoid acting on this advice"
	}
	return bias
}
