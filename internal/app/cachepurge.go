package app

import (
	"context"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
)

const minPurgeInterval = time.Minute

// purgeInterval sweeps once per cache TTL, but never more often than once a minute.
func purgeInterval(ttl time.Duration) time.Duration {
	if ttl < minPurgeInterval {
		return minPurgeInterval
	}
	return ttl
}

// startCachePurge deletes expired quotes immediately and then on every tick until ctx ends.
func startCachePurge(ctx context.Context, cache interfaces.QuoteCache, logger *common.Logger, interval time.Duration) {
	purgeCache(ctx, cache, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Cache purge: stopped")
			return
		case <-ticker.C:
			purgeCache(ctx, cache, logger)
		}
	}
}

func purgeCache(ctx context.Context, cache interfaces.QuoteCache, logger *common.Logger) {
	start := time.Now()
	if err := cache.Purge(ctx); err != nil {
		logger.Warn().Err(err).Msg("Cache purge failed")
		return
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("Cache purge: complete")
}
