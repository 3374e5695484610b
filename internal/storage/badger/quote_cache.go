package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// QuoteEntry is one cached aggregation.
type QuoteEntry struct {
	Key       string `badgerhold:"key"`
	Records   []models.SourceRecord
	ExpiresAt int64 // unix nanoseconds
}

// QuoteCache implements interfaces.QuoteCache on a Store.
type QuoteCache struct {
	store  *Store
	logger *common.Logger
	now    func() time.Time
}

// NewQuoteCache creates a cache over store.
func NewQuoteCache(store *Store, logger *common.Logger) *QuoteCache {
	return &QuoteCache{store: store, logger: logger, now: time.Now}
}

// Get returns the cached records for key. Expired entries are removed and reported as a miss.
func (c *QuoteCache) Get(_ context.Context, key string) ([]models.SourceRecord, bool, error) {
	var entry QuoteEntry
	err := c.store.db.Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key '%s': %w", key, err)
	}

	if c.now().UnixNano() >= entry.ExpiresAt {
		if err := c.store.db.Delete(key, QuoteEntry{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to evict expired cache entry")
		}
		return nil, false, nil
	}
	return entry.Records, true, nil
}

// Set stores records under key for ttl.
func (c *QuoteCache) Set(_ context.Context, key string, records []models.SourceRecord, ttl time.Duration) error {
	entry := QuoteEntry{
		Key:       key,
		Records:   records,
		ExpiresAt: c.now().Add(ttl).UnixNano(),
	}
	if err := c.store.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to write cache key '%s': %w", key, err)
	}
	return nil
}

// Purge deletes every expired entry.
func (c *QuoteCache) Purge(_ context.Context) error {
	now := c.now().UnixNano()
	if err := c.store.db.DeleteMatching(&QuoteEntry{}, badgerhold.Where("ExpiresAt").Le(now)); err != nil {
		return fmt.Errorf("failed to purge quote cache: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (c *QuoteCache) Close() error {
	return c.store.Close()
}

// Ensure QuoteCache implements QuoteCache
var _ interfaces.QuoteCache = (*QuoteCache)(nil)
