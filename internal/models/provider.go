package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoQuoteData is returned by provider payload mappers when the payload carries no price
var ErrNoQuoteData = errors.New("payload contains no quote data")

// AlphaVantageGlobalQuote is the "Global Quote" object of a GLOBAL_QUOTE response.
// AlphaVantage encodes every value as a string.
type AlphaVantageGlobalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// AlphaVantageQuoteResponse is the GLOBAL_QUOTE envelope, including the rate limit notices
type AlphaVantageQuoteResponse struct {
	GlobalQuote  AlphaVantageGlobalQuote `json:"Global Quote"`
	Note         string                  `json:"Note,omitempty"`
	Information  string                  `json:"Information,omitempty"`
	ErrorMessage string                  `json:"Error Message,omitempty"`
}

// ToQuote maps the global quote onto the canonical Quote
func (q AlphaVantageGlobalQuote) ToQuote(currency string) (*Quote, error) {
	price := parseNumeric(q.Price)
	if q.Symbol == "" || price == nil {
		return nil, ErrNoQuoteData
	}
	quote := &Quote{
		Symbol:        q.Symbol,
		Price:         price,
		Change:        parseNumeric(q.Change),
		ChangePercent: parseNumeric(q.ChangePercent),
		PreviousClose: parseNumeric(q.PreviousClose),
		Open:          parseNumeric(q.Open),
		High:          parseNumeric(q.High),
		Low:           parseNumeric(q.Low),
		Volume:        parseNumeric(q.Volume),
		Currency:      currency,
	}
	if t, err := time.Parse("2006-01-02", q.LatestTradingDay); err == nil {
		quote.Timestamp = t
	}
	return quote, nil
}

// FinnhubQuote is the /quote response. Finnhub returns null for d and dp on unknown symbols.
type FinnhubQuote struct {
	Current       *float64 `json:"c"`
	Change        *float64 `json:"d"`
	ChangePercent *float64 `json:"dp"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PreviousClose *float64 `json:"pc"`
	Timestamp     int64    `json:"t"`
}

// ToQuote maps the Finnhub payload onto the canonical Quote.
// Finnhub answers unknown symbols with zeros, which is treated as no data.
func (q FinnhubQuote) ToQuote(symbol string) (*Quote, error) {
	if q.Current == nil || (*q.Current == 0 && q.Timestamp == 0) {
		return nil, ErrNoQuoteData
	}
	quote := &Quote{
		Symbol:        symbol,
		Price:         q.Current,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		PreviousClose: q.PreviousClose,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Currency:      "USD",
	}
	if q.Timestamp > 0 {
		quote.Timestamp = time.Unix(q.Timestamp, 0).UTC()
	}
	return quote, nil
}

// FinnhubNewsItem is one entry of the /company-news response
type FinnhubNewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// YahooChartResponse is the top-level v8 chart container
type YahooChartResponse struct {
	Chart struct {
		Result []YahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooChartResult holds the meta block and indicator series for one symbol
type YahooChartResult struct {
	Meta       YahooChartMeta `json:"meta"`
	Timestamp  []int64        `json:"timestamp"`
	Indicators struct {
		Quote []YahooIndicatorQuote `json:"quote"`
	} `json:"indicators"`
}

// YahooChartMeta is the meta block of a chart result
type YahooChartMeta struct {
	Currency             string   `json:"currency"`
	Symbol               string   `json:"symbol"`
	ExchangeName         string   `json:"exchangeName"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	RegularMarketTime    int64    `json:"regularMarketTime"`
	RegularMarketVolume  *float64 `json:"regularMarketVolume"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	PreviousClose        *float64 `json:"previousClose"`
	ChartPreviousClose   *float64 `json:"chartPreviousClose"`
}

// YahooIndicatorQuote holds the OHLCV series. Entries are null on non-trading intervals.
type YahooIndicatorQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// ToQuote maps the first chart result onto the canonical Quote
func (r YahooChartResponse) ToQuote(symbol string) (*Quote, error) {
	if len(r.Chart.Result) == 0 {
		return nil, ErrNoQuoteData
	}
	res := r.Chart.Result[0]
	meta := res.Meta

	var series YahooIndicatorQuote
	if len(res.Indicators.Quote) > 0 {
		series = res.Indicators.Quote[0]
	}

	price := meta.RegularMarketPrice
	if price == nil {
		price = lastValue(series.Close)
	}
	if price == nil {
		return nil, ErrNoQuoteData
	}

	prev := meta.PreviousClose
	if prev == nil {
		prev = meta.ChartPreviousClose
	}

	currency := meta.Currency
	if currency == "" {
		currency = "INR"
	}
	if meta.Symbol != "" {
		symbol = meta.Symbol
	}

	quote := &Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prev,
		Open:          lastValue(series.Open),
		High:          meta.RegularMarketDayHigh,
		Low:           meta.RegularMarketDayLow,
		Volume:        meta.RegularMarketVolume,
		Currency:      currency,
	}
	if quote.High == nil {
		quote.High = lastValue(series.High)
	}
	if quote.Low == nil {
		quote.Low = lastValue(series.Low)
	}
	if quote.Volume == nil {
		quote.Volume = lastValue(series.Volume)
	}
	if prev != nil {
		change := *price - *prev
		quote.Change = &change
		if *prev != 0 {
			pct := change / *prev * 100
			quote.ChangePercent = &pct
		}
	}
	if meta.RegularMarketTime > 0 {
		quote.Timestamp = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	return quote, nil
}

// NSEQuoteResponse is the quote-equity payload
type NSEQuoteResponse struct {
	Info struct {
		Symbol      string `json:"symbol"`
		CompanyName string `json:"companyName"`
	} `json:"info"`
	Metadata struct {
		LastUpdateTime string `json:"lastUpdateTime"`
	} `json:"metadata"`
	PriceInfo *NSEPriceInfo `json:"priceInfo"`
	PreOpen   struct {
		TotalTradedVolume *float64 `json:"totalTradedVolume"`
	} `json:"preOpenMarket"`
}

// NSEPriceInfo is the priceInfo block of a quote-equity payload
type NSEPriceInfo struct {
	LastPrice         *float64 `json:"lastPrice"`
	Change            *float64 `json:"change"`
	PChange           *float64 `json:"pChange"`
	Open              *float64 `json:"open"`
	PreviousClose     *float64 `json:"previousClose"`
	TotalTradedVolume *float64 `json:"totalTradedVolume"`
	LastUpdateTime    string   `json:"lastUpdateTime"`
	IntraDayHighLow   struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"intraDayHighLow"`
}

var istZone = time.FixedZone("IST", 5*60*60+30*60)

// ToQuote maps the NSE payload onto the canonical Quote
func (r NSEQuoteResponse) ToQuote(symbol string) (*Quote, error) {
	if r.PriceInfo == nil || r.PriceInfo.LastPrice == nil {
		return nil, ErrNoQuoteData
	}
	info := r.PriceInfo
	if r.Info.Symbol != "" {
		symbol = r.Info.Symbol
	}
	quote := &Quote{
		Symbol:        symbol,
		Price:         info.LastPrice,
		Change:        info.Change,
		ChangePercent: info.PChange,
		PreviousClose: info.PreviousClose,
		Open:          info.Open,
		High:          info.IntraDayHighLow.Max,
		Low:           info.IntraDayHighLow.Min,
		Volume:        info.TotalTradedVolume,
		Currency:      "INR",
	}
	if quote.Volume == nil {
		quote.Volume = r.PreOpen.TotalTradedVolume
	}
	updated := r.Metadata.LastUpdateTime
	if updated == "" {
		updated = info.LastUpdateTime
	}
	if t, err := time.ParseInLocation("02-Jan-2006 15:04:05", updated, istZone); err == nil {
		quote.Timestamp = t.UTC()
	}
	return quote, nil
}

// parseNumeric parses AlphaVantage style numeric strings such as "1.23" or "-0.45%".
// Empty, "None" and non-finite values yield nil.
func parseNumeric(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || strings.EqualFold(s, "none") || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func lastValue(series []*float64) *float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] != nil {
			v := *series[i]
			return &v
		}
	}
	return nil
}
