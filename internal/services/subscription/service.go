// Package subscription manages report subscriptions and unsubscribe links
package subscription

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/interfaces"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

// Service implements SubscriptionService
type Service struct {
	store    interfaces.SubscriptionStore
	validate *validator.Validate
	secret   []byte
	expiry   time.Duration
	logger   *common.Logger
	now      func() time.Time
}

// NewService creates a subscription service. An empty secret disables unsubscribe tokens.
func NewService(store interfaces.SubscriptionStore, secret string, expiry time.Duration, logger *common.Logger) *Service {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &Service{
		store:    store,
		validate: NewValidator(),
		secret:   []byte(secret),
		expiry:   expiry,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe validates sub and upserts it by email. Nothing is stored when validation fails.
func (s *Service) Subscribe(ctx context.Context, sub *models.Subscription) (string, bool, error) {
	sub.Email = models.NormalizeEmail(sub.Email)
	sub.Frequency = strings.TrimSpace(sub.Frequency)
	if err := validate(s.validate, sub); err != nil {
		return "", false, err
	}

	now := s.now().UTC()
	sub.Status = models.SubscriptionActive
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.Portfolio.Holdings == nil {
		sub.Portfolio.Holdings = []models.SubscriptionHolding{}
	}

	id, created, err := s.store.Upsert(ctx, sub)
	if err != nil {
		return "", false, err
	}
	s.logger.Info().Str("email", sub.Email).Str("frequency", sub.Frequency).Bool("created", created).Msg("Subscription saved")
	return id, created, nil
}

// Get returns the subscription for email
func (s *Service) Get(ctx context.Context, email string) (*models.Subscription, error) {
	return s.store.GetByEmail(ctx, models.NormalizeEmail(email))
}

// ListDaily returns the active daily subscriptions
func (s *Service) ListDaily(ctx context.Context) ([]*models.Subscription, error) {
	return s.store.ListActiveByFrequency(ctx, models.FrequencyDaily)
}

// IssueUnsubscribeToken signs a token that deactivates the subscription of email
func (s *Service) IssueUnsubscribeToken(email string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokensDisabled
	}
	return signToken(models.NormalizeEmail(email), s.secret, s.now(), s.expiry)
}

// Unsubscribe deactivates the subscription named by token and returns its email
func (s *Service) Unsubscribe(ctx context.Context, token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokensDisabled
	}
	email, err := parseToken(token, s.secret, s.now())
	if err != nil {
		return "", err
	}
	if err := s.store.SetStatus(ctx, email, models.SubscriptionInactive); err != nil {
		return "", err
	}
	s.logger.Info().Str("email", email).Msg("Subscription deactivated")
	return email, nil
}

// Ensure Service implements SubscriptionService
var _ interfaces.SubscriptionService = (*Service)(nil)
