package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/app"
	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/services/subscription"
	"github.com/darshan15062002/stock-analysis/internal/storage/badger"
)

// newTestServerWithStorage creates a test server backed by an in-memory badger store.
func newTestServerWithStorage(t *testing.T) (*Server, *subscription.Service) {
	t.Helper()
	logger := common.NewSilentLogger()
	db, err := badger.NewMemoryStore(logger)
	require.NoError(t, err)
	store := badger.NewSubscriptionStore(db, logger)
	t.Cleanup(func() { store.Close() })

	svc := subscription.NewService(store, "test-secret", time.Hour, logger)
	return newTestServer(t, &app.App{SubscriptionService: svc}), svc
}

func subscribe(t *testing.T, srv *Server, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.handleSubscribe(rec, httptest.NewRequest(http.MethodPost, "/api/user/subscribe", jsonBody(t, body)))
	return rec
}

func TestHandleSubscribe_CreateThenUpdate(t *testing.T) {
	srv, _ := newTestServerWithStorage(t)

	rec := subscribe(t, srv, map[string]interface{}{
		"email":     "Investor@Example.com",
		"frequency": "daily",
		"portfolio": map[string]interface{}{
			"holdings": []map[string]interface{}{{"symbol": "TCS.NS", "quantity": 5, "current_value": 20000}},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "created", created["action"])
	assert.Equal(t, "Subscription created successfully", created["message"])

	rec = subscribe(t, srv, map[string]interface{}{"email": "investor@example.com", "frequency": "weekly"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)
	assert.Equal(t, "updated", updated["action"])
	assert.Equal(t, created["subscription_id"], updated["subscription_id"])
}

func TestHandleSubscribe_Validation(t *testing.T) {
	srv, svc := newTestServerWithStorage(t)

	tests := []struct {
		body map[string]interface{}
		want string
	}{
		{map[string]interface{}{"email": "a@b.co"}, subscription.MsgRequired},
		{map[string]interface{}{"email": "not-an-email", "frequency": "daily"}, subscription.MsgInvalidEmail},
		{map[string]interface{}{"email": "a@b.co", "frequency": "hourly"}, subscription.MsgInvalidFrequency},
	}
	for _, tt := range tests {
		rec := subscribe(t, srv, tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
	}

	_, err := svc.Get(context.Background(), "a@b.co")
	assert.Error(t, err, "rejected subscriptions are not stored")
}

func TestHandleGetSubscription(t *testing.T) {
	srv, _ := newTestServerWithStorage(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/subscription/nobody@example.com", nil)
	req.SetPathValue("email", "nobody@example.com")
	rec := httptest.NewRecorder()
	srv.handleGetSubscription(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Subscription not found", decodeBody(t, rec)["error"])

	subscribe(t, srv, map[string]interface{}{"email": "someone@example.com", "frequency": "monthly"})

	req = httptest.NewRequest(http.MethodGet, "/api/user/subscription/SOMEONE@example.com", nil)
	req.SetPathValue("email", "SOMEONE@example.com")
	rec = httptest.NewRecorder()
	srv.handleGetSubscription(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decodeBody(t, rec)["subscription"].(map[string]interface{})
	assert.Equal(t, "someone@example.com", sub["email"])
	assert.Equal(t, "monthly", sub["frequency"])
	assert.NotContains(t, sub, "subscription_id")
}

func TestHandleDailySubscribers_AndUnsubscribe(t *testing.T) {
	srv, svc := newTestServerWithStorage(t)
	subscribe(t, srv, map[string]interface{}{"email": "daily@example.com", "frequency": "daily"})
	subscribe(t, srv, map[string]interface{}{"email": "weekly@example.com", "frequency": "weekly"})

	rec := httptest.NewRecorder()
	srv.handleDailySubscribers(rec, httptest.NewRequest(http.MethodGet, "/api/subscribers/daily", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])

	token, err := svc.IssueUnsubscribeToken("daily@example.com")
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	srv.handleUnsubscribe(rec, httptest.NewRequest(http.MethodGet, "/api/user/unsubscribe?token="+url.QueryEscape(token), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "daily@example.com", decodeBody(t, rec)["email"])

	rec = httptest.NewRecorder()
	srv.handleDailySubscribers(rec, httptest.NewRequest(http.MethodGet, "/api/subscribers/daily", nil))
	assert.Equal(t, float64(0), decodeBody(t, rec)["count"])
}

func TestHandleUnsubscribe_BadTokens(t *testing.T) {
	srv, svc := newTestServerWithStorage(t)

	rec := httptest.NewRecorder()
	srv.handleUnsubscribe(rec, httptest.NewRequest(http.MethodGet, "/api/user/unsubscribe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleUnsubscribe(rec, httptest.NewRequest(http.MethodGet, "/api/user/unsubscribe?token=garbage", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token, err := svc.IssueUnsubscribeToken("ghost@example.com")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	srv.handleUnsubscribe(rec, httptest.NewRequest(http.MethodGet, "/api/user/unsubscribe?token="+url.QueryEscape(token), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
