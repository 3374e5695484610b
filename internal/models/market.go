// Package models defines data structures for ClearStock
package models

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Market identifies the exchange family a ticker trades on
type Market string

const (
	MarketUS      Market = "US"
	MarketIndian  Market = "INDIAN"
	MarketUnknown Market = "UNKNOWN"
)

// Currency returns the quote currency conventionally used for the market
func (m Market) Currency() string {
	if m == MarketIndian {
		return "INR"
	}
	return "USD"
}

// Quote is the normalized snapshot of one instrument from one provider.
// Nil fields mean the provider did not report the value.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         *float64  `json:"price,omitempty"`
	Change        *float64  `json:"change,omitempty"`
	ChangePercent *float64  `json:"changePercent,omitempty"`
	PreviousClose *float64  `json:"previousClose,omitempty"`
	Open          *float64  `json:"open,omitempty"`
	High          *float64  `json:"high,omitempty"`
	Low           *float64  `json:"low,omitempty"`
	Volume        *float64  `json:"volume,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitzero"`
}

// Float returns a pointer to v, for building quotes field by field
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, returning 0 for nil
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// SourceRecord is one provider's contribution to an aggregation
type SourceRecord struct {
	Source      string    `json:"source"`
	Reliability float64   `json:"reliability"`
	Market      Market    `json:"market"`
	Data        Quote     `json:"data"`
	FetchedAt   time.Time `json:"timestamp"`
}

// PriceRange summarizes the usable price points of an aggregation
type PriceRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Confidence labels for a BiasMetric
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// BiasMetric is the cross-source dispersion score for one aggregation
type BiasMetric struct {
	Score      float64     `json:"score"`
	Confidence string      `json:"confidence"`
	Sources    int         `json:"sources"`
	Market     Market      `json:"market"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// FetchErrorKind classifies why a provider call failed
type FetchErrorKind string

const (
	FetchTimeout FetchErrorKind = "timeout"
	FetchStatus  FetchErrorKind = "status"
	FetchDecode  FetchErrorKind = "decode"
	FetchMissing FetchErrorKind = "missing"
	FetchSession FetchErrorKind = "session"
	FetchConfig  FetchErrorKind = "config"
)

// FetchError is returned by quote sources when a single provider call fails
type FetchError struct {
	Source     string         `json:"source"`
	Symbol     string         `json:"symbol"`
	Kind       FetchErrorKind `json:"kind"`
	StatusCode int            `json:"status_code,omitempty"`
	Err        error          `json:"-"`
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s failed for %s", e.Source, e.Kind, e.Symbol)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError converts any error into a FetchError attributed to source.
// Errors that already are FetchErrors are returned unchanged.
func AsFetchError(source, symbol string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Source: source, Symbol: symbol, Kind: FetchStatus, Err: err}
}

// TransportError classifies a failed HTTP round trip as a timeout or a status failure
func TransportError(source, symbol string, err error) *FetchError {
	kind := FetchStatus
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = FetchTimeout
	}
	return &FetchError{Source: source, Symbol: symbol, Kind: kind, Err: err}
}

// FetchResult is the outcome of one adapter call: exactly one of Record or Err is set
type FetchResult struct {
	Source string        `json:"source"`
	Record *SourceRecord `json:"record,omitempty"`
	Err    *FetchError   `json:"error,omitempty"`
}

// OK reports whether the call produced a record
func (r FetchResult) OK() bool {
	return r.Record != nil && r.Err == nil
}

// NewsItem is a single headline used for sentiment analysis
type NewsItem struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
