package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// SubscriptionStore implements interfaces.SubscriptionStore on a Store, keyed by email.
type SubscriptionStore struct {
	store  *Store
	logger *common.Logger
	mu     sync.Mutex // serializes read-modify-write upserts
}

// NewSubscriptionStore creates a subscription store over store.
func NewSubscriptionStore(store *Store, logger *common.Logger) *SubscriptionStore {
	return &SubscriptionStore{store: store, logger: logger}
}

// Upsert inserts or replaces the subscription for sub.Email, keeping the original creation time.
func (s *SubscriptionStore) Upsert(_ context.Context, sub *models.Subscription) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(sub.Email)
	record := *sub
	record.Email = email
	record.SubscriptionID = models.SubscriptionID(email)

	var existing models.Subscription
	err := s.store.db.Get(email, &existing)
	created := errors.Is(err, badgerhold.ErrNotFound)
	if err != nil && !created {
		return "", false, fmt.Errorf("failed to read subscription '%s': %w", email, err)
	}
	if !created && !existing.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.store.db.Upsert(email, &record); err != nil {
		return "", false, fmt.Errorf("failed to write subscription '%s': %w", email, err)
	}
	*sub = record
	return record.SubscriptionID, created, nil
}

// GetByEmail returns ErrSubscriptionNotFound when no subscription exists.
func (s *SubscriptionStore) GetByEmail(_ context.Context, email string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.store.db.Get(models.NormalizeEmail(email), &sub)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, models.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	return &sub, nil
}

// ListActiveByFrequency returns active subscriptions for frequency, oldest first.
func (s *SubscriptionStore) ListActiveByFrequency(_ context.Context, frequency string) ([]*models.Subscription, error) {
	var subs []models.Subscription
	query := badgerhold.Where("Frequency").Eq(frequency).And("Status").Eq(models.SubscriptionActive).SortBy("CreatedAt")
	if err := s.store.db.Find(&subs, query); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	out := make([]*models.Subscription, 0, len(subs))
	for i := range subs {
		out = append(out, &subs[i])
	}
	return out, nil
}

// SetStatus updates the status of the subscription for email.
func (s *SubscriptionStore) SetStatus(ctx context.Context, email, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	sub.Status = status
	sub.UpdatedAt = time.Now().UTC()
	if err := s.store.db.Update(sub.Email, sub); err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (s *SubscriptionStore) Close() error {
	return s.store.Close()
}

// Ensure SubscriptionStore implements SubscriptionStore
var _ interfaces.SubscriptionStore = (*SubscriptionStore)(nil)
