package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// SubscriptionStore implements interfaces.SubscriptionStore. Record ids derive from the email.
type SubscriptionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewSubscriptionStore creates a store over db and defines its table.
func NewSubscriptionStore(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*SubscriptionStore, error) {
	if err := defineTables(ctx, db, subscriptionTable); err != nil {
		return nil, err
	}
	return &SubscriptionStore{db: db, logger: logger}, nil
}

func subscriptionRID(email string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(subscriptionTable, models.SubscriptionID(email))
}

func (s *SubscriptionStore) get(ctx context.Context, email string) (*models.Subscription, error) {
	record, err := surrealdb.Select[models.Subscription](ctx, s.db, subscriptionRID(email))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select subscription: %w", err)
	}
	return record, nil
}

// Upsert inserts or replaces the subscription for sub.Email, keeping the original creation time.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) (string, bool, error) {
	email := models.NormalizeEmail(sub.Email)
	record := *sub
	record.Email = email
	record.SubscriptionID = models.SubscriptionID(email)

	existing, err := s.get(ctx, email)
	if err != nil {
		return "", false, err
	}
	created := existing == nil
	if !created && !existing.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}

	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{"rid": subscriptionRID(email), "record": record}
	if _, err := surrealdb.Query[[]models.Subscription](ctx, s.db, sql, vars); err != nil {
		return "", false, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	*sub = record
	return record.SubscriptionID, created, nil
}

// GetByEmail returns ErrSubscriptionNotFound when no subscription exists.
func (s *SubscriptionStore) GetByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	record, err := s.get(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, models.ErrSubscriptionNotFound
	}
	return record, nil
}

// ListActiveByFrequency returns active subscriptions for frequency, oldest first.
func (s *SubscriptionStore) ListActiveByFrequency(ctx context.Context, frequency string) ([]*models.Subscription, error) {
	sql := "SELECT * FROM subscription WHERE frequency = $frequency AND status = $status ORDER BY created_at ASC"
	vars := map[string]any{
		"frequency": frequency,
		"status":    models.SubscriptionActive,
	}

	results, err := surrealdb.Query[[]models.Subscription](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := []*models.Subscription{}
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			subs = append(subs, &(*results)[0].Result[i])
		}
	}
	return subs, nil
}

// SetStatus updates the status of the subscription for email.
func (s *SubscriptionStore) SetStatus(ctx context.Context, email, status string) error {
	sql := "UPDATE $rid SET status = $status, updated_at = $now RETURN AFTER"
	vars := map[string]any{
		"rid":    subscriptionRID(models.NormalizeEmail(email)),
		"status": status,
		"now":    time.Now().UTC(),
	}

	results, err := surrealdb.Query[[]models.Subscription](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return models.ErrSubscriptionNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SubscriptionStore) Close() error {
	return s.db.Close(context.Background())
}

// Ensure SubscriptionStore implements SubscriptionStore
var _ interfaces.SubscriptionStore = (*SubscriptionStore)(nil)
