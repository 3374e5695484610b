package content

import (
	"regexp"
	"strings"
)

var symbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]{2,8}(?:\.NS|\.BO)?\b`),
	regexp.MustCompile(`(?i)\b(?:RELIANCE|TCS|INFY|HDFC|ICICI|BAJAJ|ADANI|TATA|WIPRO|BHARTI|MARUTI|ASIANPAINT|TITAN|NESTLEIND|HCLTECH)\b`),
	regexp.MustCompile(`(?i)\$(?:AAPL|GOOGL|MSFT|TSLA|AMZN|META|NFLX|NVDA)`),
}

// All-caps words that look like tickers in shouty posts
var stopwords = toSet(
	"A", "AN", "THE", "AND", "OR", "BUT", "NOT", "NO", "YES", "OK",
	"TO", "OF", "IN", "ON", "AT", "BY", "FOR", "FROM", "WITH", "INTO", "UP", "OUT",
	"IS", "IT", "ITS", "BE", "AM", "ARE", "WAS", "IF", "AS", "SO", "DO", "GO", "GET",
	"I", "ME", "MY", "WE", "US", "OUR", "YOU", "YOUR", "HE", "SHE", "THEY", "ALL",
	"THIS", "THAT", "WILL", "JUST", "NOW", "NEW", "NEXT", "TOP", "BIG", "HUGE", "TODAY",
	"BUY", "SELL", "HOLD", "MOON", "STOCK", "STOCKS", "SHARE", "SHARES", "MARKET", "PRICE",
	"TARGET", "URGENT", "HURRY", "LAST", "TIME", "ACT", "MISS", "DONT", "NEVER", "ALWAYS",
	"CEO", "IPO", "ETF", "NSE", "BSE", "USD", "INR", "RS", "EPS", "PE", "FOMO", "LOL",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ExtractSymbols returns the tickers mentioned in text, upper-cased and in first-seen order.
// A ticker mentioned with and without an exchange suffix is reported once.
func ExtractSymbols(text string) []string {
	seen := make(map[string]struct{})
	symbols := []string{}
	for _, re := range symbolPatterns {
		for _, m := range re.FindAllString(text, -1) {
			sym := strings.ToUpper(strings.TrimPrefix(m, "$"))
			base := strings.TrimSuffix(strings.TrimSuffix(sym, ".NS"), ".BO")
			if _, stop := stopwords[base]; stop {
				continue
			}
			if _, dup := seen[base]; dup {
				continue
			}
			seen[base] = struct{}{}
			symbols = append(symbols, sym)
		}
	}
	return symbols
}
