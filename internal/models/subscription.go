package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrSubscriptionNotFound is returned by subscription stores for unknown emails
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription frequencies
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Subscription statuses
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Subscription is a report subscription, unique per email
type Subscription struct {
	SubscriptionID  string                 `json:"subscription_id"`
	Email           string                 `json:"email" validate:"required,simple_email"`
	Name            string                 `json:"name,omitempty"`
	Frequency       string                 `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Status          string                 `json:"status"`
	Portfolio       SubscriptionPortfolio  `json:"portfolio"`
	UserPreferences map[string]interface{} `json:"user_preferences,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// SubscriptionPortfolio holds the holdings a subscriber wants reported on
type SubscriptionPortfolio struct {
	Holdings []SubscriptionHolding `json:"holdings"`
}

// SubscriptionHolding is one position of a subscriber portfolio
type SubscriptionHolding struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avg_price"`
	CurrentPrice  float64 `json:"current_price"`
	CurrentValue  float64 `json:"current_value"`
	TotalInvested float64 `json:"total_invested"`
	ProfitLoss    float64 `json:"profit_loss"`
}

// SubscriptionView is the public projection returned by the lookup endpoint
type SubscriptionView struct {
	Email     string                `json:"email"`
	Frequency string                `json:"frequency"`
	Status    string                `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Portfolio SubscriptionPortfolio `json:"portfolio"`
}

// View projects the subscription for API responses
func (s *Subscription) View() SubscriptionView {
	return SubscriptionView{
		Email:     s.Email,
		Frequency: s.Frequency,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Portfolio: s.Portfolio,
	}
}

// NormalizeEmail lower-cases and trims an email for use as the subscription key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SubscriptionID derives the stable id of the subscription for a normalized email
func SubscriptionID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}
