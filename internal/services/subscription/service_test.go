package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
	"github.com/darshan15062002/stock-analysis/internal/storage/badger"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *badger.SubscriptionStore) {
	t.Helper()
	db, err := badger.NewMemoryStore(common.NewSilentLogger())
	require.NoError(t, err)
	store := badger.NewSubscriptionStore(db, common.NewSilentLogger())
	t.Cleanup(func() { store.Close() })
	return NewService(store, testSecret, 0, common.NewSilentLogger()), store
}

func TestSubscribe_Validation(t *testing.T) {
	tests := []struct {
		name string
		sub  models.Subscription
		want string
	}{
		{"missing email", models.Subscription{Frequency: "daily"}, MsgRequired},
		{"missing frequency", models.Subscription{Email: "a@b.co"}, MsgRequired},
		{"malformed email", models.Subscription{Email: "not-an-email", Frequency: "daily"}, MsgInvalidEmail},
		{"email without tld", models.Subscription{Email: "a@b", Frequency: "daily"}, MsgInvalidEmail},
		{"bad frequency", models.Subscription{Email: "a@b.co", Frequency: "hourly"}, MsgInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			sub := tt.sub
			_, _, err := svc.Subscribe(context.Background(), &sub)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.EqualError(t, err, tt.want)

			list, err := store.ListActiveByFrequency(context.Background(), models.FrequencyDaily)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestSubscribe_TwiceUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, created, err := svc.Subscribe(ctx, &models.Subscription{Email: "Ravi@Example.com", Frequency: "daily", Name: "Ravi"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, id)

	id2, created, err := svc.Subscribe(ctx, &models.Subscription{Email: "ravi@example.com", Frequency: "daily"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, id2)

	daily, err := svc.ListDaily(ctx)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "ravi@example.com", daily[0].Email)
	assert.Equal(t, models.SubscriptionActive, daily[0].Status)
	assert.NotNil(t, daily[0].Portfolio.Holdings)
}

func TestUnsubscribe_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Subscribe(ctx, &models.Subscription{Email: "meera@example.com", Frequency: "daily"})
	require.NoError(t, err)

	token, err := svc.IssueUnsubscribeToken("Meera@Example.com")
	require.NoError(t, err)

	email, err := svc.Unsubscribe(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", email)

	sub, err := svc.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionInactive, sub.Status)

	daily, err := svc.ListDaily(ctx)
	require.NoError(t, err)
	assert.Empty(t, daily)
}

func TestUnsubscribe_RejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Unsubscribe(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	issued := time.Now().Add(-31 * 24 * time.Hour)
	expired, err := signToken("x@example.com", []byte(testSecret), issued, DefaultTokenExpiry)
	require.NoError(t, err)
	_, err = svc.Unsubscribe(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := signToken("x@example.com", []byte("other-secret"), time.Now(), DefaultTokenExpiry)
	require.NoError(t, err)
	_, err = svc.Unsubscribe(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a signed token for another purpose
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "x@example.com", "iss": tokenIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := other.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.Unsubscribe(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnsubscribe_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := svc.IssueUnsubscribeToken("ghost@example.com")
	require.NoError(t, err)
	_, err = svc.Unsubscribe(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrSubscriptionNotFound)
}

func TestTokensDisabledWithoutSecret(t *testing.T) {
	svc := NewService(nil, "", 0, common.NewSilentLogger())
	_, err := svc.IssueUnsubscribeToken("a@b.co")
	assert.ErrorIs(t, err, ErrTokensDisabled)
}
