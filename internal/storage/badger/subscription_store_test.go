package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

func newTestSubscriptionStore(t *testing.T) *SubscriptionStore {
	t.Helper()
	store, err := NewMemoryStore(common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	subs := NewSubscriptionStore(store, common.NewSilentLogger())
	t.Cleanup(func() { subs.Close() })
	return subs
}

func sampleSubscription(email, frequency string, created time.Time) *models.Subscription {
	return &models.Subscription{
		Email:     email,
		Frequency: frequency,
		Status:    models.SubscriptionActive,
		Portfolio: models.SubscriptionPortfolio{Holdings: []models.SubscriptionHolding{
			{Symbol: "TCS.NS", Quantity: 10, CurrentValue: 41200, TotalInvested: 38000},
		}},
		UserPreferences: map[string]interface{}{"theme": "dark", "alerts": true},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestSubscriptionStore_UpsertIsPerEmail(t *testing.T) {
	subs := newTestSubscriptionStore(t)
	ctx := context.Background()
	first := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	id, created, err := subs.Upsert(ctx, sampleSubscription("Asha@Example.com", "daily", first))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}
	if id != models.SubscriptionID("asha@example.com") {
		t.Errorf("id = %q, want email-derived id", id)
	}

	second := sampleSubscription("asha@example.com", "weekly", first.Add(24*time.Hour))
	id2, created, err := subs.Upsert(ctx, second)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if created {
		t.Error("second upsert should update")
	}
	if id2 != id {
		t.Errorf("id changed on update: %q != %q", id2, id)
	}

	got, err := subs.GetByEmail(ctx, " ASHA@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.Frequency != "weekly" {
		t.Errorf("Frequency = %q, want weekly", got.Frequency)
	}
	if !got.CreatedAt.Equal(first) {
		t.Errorf("CreatedAt = %v, want original %v", got.CreatedAt, first)
	}
	if got.UserPreferences["theme"] != "dark" {
		t.Errorf("UserPreferences = %v", got.UserPreferences)
	}
	if len(got.Portfolio.Holdings) != 1 || got.Portfolio.Holdings[0].Symbol != "TCS.NS" {
		t.Errorf("Holdings = %+v", got.Portfolio.Holdings)
	}
}

func TestSubscriptionStore_GetMissing(t *testing.T) {
	subs := newTestSubscriptionStore(t)
	_, err := subs.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, models.ErrSubscriptionNotFound) {
		t.Errorf("err = %v, want ErrSubscriptionNotFound", err)
	}
	if err := subs.SetStatus(context.Background(), "nobody@example.com", models.SubscriptionInactive); !errors.Is(err, models.ErrSubscriptionNotFound) {
		t.Errorf("SetStatus err = %v, want ErrSubscriptionNotFound", err)
	}
}

func TestSubscriptionStore_ListActiveByFrequency(t *testing.T) {
	subs := newTestSubscriptionStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	for i, s := range []*models.Subscription{
		sampleSubscription("b@example.com", "daily", base.Add(time.Hour)),
		sampleSubscription("a@example.com", "daily", base),
		sampleSubscription("c@example.com", "weekly", base),
		sampleSubscription("d@example.com", "daily", base),
	} {
		if _, _, err := subs.Upsert(ctx, s); err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}
	if err := subs.SetStatus(ctx, "d@example.com", models.SubscriptionInactive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	got, err := subs.ListActiveByFrequency(ctx, models.FrequencyDaily)
	if err != nil {
		t.Fatalf("ListActiveByFrequency failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d subscriptions, want 2", len(got))
	}
	if got[0].Email != "a@example.com" || got[1].Email != "b@example.com" {
		t.Errorf("order = %s, %s", got[0].Email, got[1].Email)
	}
}
