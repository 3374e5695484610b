// Package aggregate fans a symbol out to the quote sources of its market
package aggregate

//go:generate mockgen -package=aggregate_test -destination=mock_quote_source_test.go github.com/darshan15062002/stock-analysis/internal/interfaces QuoteSource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/services/market"
)

// DefaultCacheTTL is how long an aggregation is served from cache
const DefaultCacheTTL = 300 * time.Second

// Binding attaches a quote source to a market route
type Binding struct {
	Source interfaces.QuoteSource
	// Base queries the source with the mapped NSE base symbol instead of the search symbol
	Base bool
}

// Service implements Aggregator
type Service struct {
	detector interfaces.MarketDetector
	routes   map[models.Market][]Binding
	cache    interfaces.QuoteCache
	cacheTTL time.Duration
	logger   *common.Logger
	now      func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithCache serves repeated aggregations from cache for ttl
func WithCache(cache interfaces.QuoteCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewService creates an aggregator. Sources run in the order given per market.
func NewService(detector interfaces.MarketDetector, us, indian []Binding, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		detector: detector,
		routes: map[models.Market][]Binding{
			models.MarketUS:     us,
			models.MarketIndian: indian,
		},
		cacheTTL: DefaultCacheTTL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey returns the cache key of an aggregation
func CacheKey(searchSymbol, dataType string) string {
	return fmt.Sprintf("stock:%s:%s", searchSymbol, dataType)
}

// Aggregate returns the successful records for symbol in source order.
// It fails only when ctx is already done.
func (s *Service) Aggregate(ctx context.Context, symbol string) ([]models.SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := s.detector.Detect(symbol)
	search := s.detector.SearchSymbol(symbol, m)
	key := CacheKey(search, "quote")

	if s.cache != nil {
		records, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Quote cache read failed")
		} else if ok {
			s.logger.Debug().Str("symbol", search).Int("sources", len(records)).Msg("Quote cache hit")
			return records, nil
		}
	}

	records, _ := s.collect(ctx, m, search)

	if s.cache != nil && len(records) > 0 {
		if err := s.cache.Set(ctx, key, records, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Quote cache write failed")
		}
	}
	return records, nil
}

// Collect runs every source for symbol without the cache and returns the raw results too
func (s *Service) Collect(ctx context.Context, symbol string) ([]models.SourceRecord, []models.FetchResult) {
	m := s.detector.Detect(symbol)
	return s.collect(ctx, m, s.detector.SearchSymbol(symbol, m))
}

func (s *Service) collect(ctx context.Context, m models.Market, search string) ([]models.SourceRecord, []models.FetchResult) {
	bindings := s.routes[m]
	results := make([]models.FetchResult, len(bindings))

	start := time.Now()
	var wg sync.WaitGroup
	for i, b := range bindings {
		wg.Add(1)
		go func(i int, b Binding) {
			defer wg.Done()
			results[i] = s.fetch(ctx, m, search, b)
		}(i, b)
	}
	wg.Wait()

	records := make([]models.SourceRecord, 0, len(results))
	for _, r := range results {
		if r.OK() {
			records = append(records, *r.Record)
			continue
		}
		s.logger.Warn().Err(r.Err).Str("source", r.Source).Str("symbol", search).Msg("Quote source failed")
	}

	s.logger.Debug().
		Str("symbol", search).
		Str("market", string(m)).
		Int("ok", len(records)).
		Int("sources", len(bindings)).
		Dur("elapsed", time.Since(start)).
		Msg("Aggregated quotes")
	return records, results
}

func (s *Service) fetch(ctx context.Context, m models.Market, search string, b Binding) (result models.FetchResult) {
	name := b.Source.Name()
	result.Source = name

	defer func() {
		if r := recover(); r != nil {
			result.Record = nil
			result.Err = &models.FetchError{Source: name, Symbol: search, Kind: models.FetchDecode, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	symbol := search
	if b.Base {
		symbol = market.BaseSymbol(search)
	}

	quote, err := b.Source.FetchQuote(ctx, symbol)
	if err != nil {
		result.Err = models.AsFetchError(name, symbol, err)
		return result
	}
	if quote == nil {
		result.Err = &models.FetchError{Source: name, Symbol: symbol, Kind: models.FetchMissing, Err: models.ErrNoQuoteData}
		return result
	}

	result.Record = &models.SourceRecord{
		Source:      name,
		Reliability: b.Source.Reliability(),
		Market:      m,
		Data:        *quote,
		FetchedAt:   s.now().UTC(),
	}
	return result
}

// Ensure Service implements Aggregator
var _ interfaces.Aggregator = (*Service)(nil)
