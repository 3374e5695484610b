// Package interfaces defines service contracts for ClearStock
package interfaces

import (
	"context"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// QuoteCache holds recent aggregations keyed by symbol and request type
type QuoteCache interface {
	// Get returns the cached records and true on a hit
	Get(ctx context.Context, key string) ([]models.SourceRecord, bool, error)

	// Set stores records for ttl
	Set(ctx context.Context, key string, records []models.SourceRecord, ttl time.Duration) error

	// Purge deletes every expired entry
	Purge(ctx context.Context) error

	Close() error
}

// SubscriptionStore persists report subscriptions, one per email
type SubscriptionStore interface {
	// Upsert inserts or replaces the subscription for sub.Email.
	// created is true when no subscription existed for the email.
	Upsert(ctx context.Context, sub *models.Subscription) (id string, created bool, err error)

	// GetByEmail returns ErrSubscriptionNotFound when no subscription exists
	GetByEmail(ctx context.Context, email string) (*models.Subscription, error)

	// ListActiveByFrequency returns active subscriptions for a frequency
	ListActiveByFrequency(ctx context.Context, frequency string) ([]*models.Subscription, error)

	// SetStatus updates the status of the subscription for email
	SetStatus(ctx context.Context, email, status string) error

	Close() error
}
