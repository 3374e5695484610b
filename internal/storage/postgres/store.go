// Package postgres implements the subscription store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	email            TEXT PRIMARY KEY,
	subscription_id  TEXT NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	frequency        TEXT NOT NULL,
	status           TEXT NOT NULL,
	portfolio        JSONB NOT NULL DEFAULT '{}',
	user_preferences JSONB,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS subscriptions_frequency_status_idx ON subscriptions (frequency, status);
`

const selectColumns = `email, subscription_id, name, frequency, status, portfolio, user_preferences, created_at, updated_at`

// SubscriptionStore implements interfaces.SubscriptionStore with one row per email.
type SubscriptionStore struct {
	db     *sql.DB
	logger *common.Logger
}

// Open connects to dsn and creates the subscriptions table if needed.
func Open(ctx context.Context, dsn string, logger *common.Logger) (*SubscriptionStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create subscriptions table: %w", err)
	}

	logger.Info().Msg("Postgres subscription store ready")
	return &SubscriptionStore{db: db, logger: logger}, nil
}

// Upsert inserts or replaces the subscription for sub.Email, keeping the original creation time.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) (string, bool, error) {
	email := models.NormalizeEmail(sub.Email)
	portfolio, err := json.Marshal(sub.Portfolio)
	if err != nil {
		return "", false, fmt.Errorf("failed to encode portfolio: %w", err)
	}
	var prefs []byte
	if sub.UserPreferences != nil {
		if prefs, err = json.Marshal(sub.UserPreferences); err != nil {
			return "", false, fmt.Errorf("failed to encode preferences: %w", err)
		}
	}

	// xmax is zero only for freshly inserted rows
	const q = `
INSERT INTO subscriptions (email, subscription_id, name, frequency, status, portfolio, user_preferences, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (email) DO UPDATE SET
	name = EXCLUDED.name,
	frequency = EXCLUDED.frequency,
	status = EXCLUDED.status,
	portfolio = EXCLUDED.portfolio,
	user_preferences = EXCLUDED.user_preferences,
	updated_at = EXCLUDED.updated_at
RETURNING subscription_id, created_at, (xmax = 0)`

	var (
		id      string
		created time.Time
		isNew   bool
	)
	err = s.db.QueryRowContext(ctx, q,
		email, models.SubscriptionID(email), sub.Name, sub.Frequency, sub.Status,
		portfolio, nullableJSON(prefs), sub.CreatedAt, sub.UpdatedAt,
	).Scan(&id, &created, &isNew)
	if err != nil {
		return "", false, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	sub.Email = email
	sub.SubscriptionID = id
	sub.CreatedAt = created.UTC()
	return id, isNew, nil
}

// GetByEmail returns ErrSubscriptionNotFound when no subscription exists.
func (s *SubscriptionStore) GetByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM subscriptions WHERE email = $1`, models.NormalizeEmail(email))
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	return sub, nil
}

// ListActiveByFrequency returns active subscriptions for frequency, oldest first.
func (s *SubscriptionStore) ListActiveByFrequency(ctx context.Context, frequency string) ([]*models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE frequency = $1 AND status = $2 ORDER BY created_at`,
		frequency, models.SubscriptionActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SetStatus updates the status of the subscription for email.
func (s *SubscriptionStore) SetStatus(ctx context.Context, email, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = $3 WHERE email = $1`,
		models.NormalizeEmail(email), status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return models.ErrSubscriptionNotFound
	}
	return nil
}

// Close closes the connection pool.
func (s *SubscriptionStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (*models.Subscription, error) {
	var (
		sub       models.Subscription
		portfolio []byte
		prefs     []byte
	)
	if err := row.Scan(&sub.Email, &sub.SubscriptionID, &sub.Name, &sub.Frequency, &sub.Status,
		&portfolio, &prefs, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(portfolio, &sub.Portfolio); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &sub.UserPreferences); err != nil {
			return nil, fmt.Errorf("failed to decode preferences: %w", err)
		}
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return &sub, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

// Ensure SubscriptionStore implements SubscriptionStore
var _ interfaces.SubscriptionStore = (*SubscriptionStore)(nil)
