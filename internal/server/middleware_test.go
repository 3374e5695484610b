package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/common"
)

func TestIPLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "clients are limited independently")

	now = now.Add(20 * time.Second)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
}

func TestIPLimiter_ForgetsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	now = now.Add(2 * time.Minute)
	l.allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")
}

func TestRateLimitMiddleware_OnlyAPI(t *testing.T) {
	limiter := newIPLimiter(1, time.Hour)
	handler := rateLimitMiddleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/api/version"))
	assert.Equal(t, http.StatusTooManyRequests, get("/api/version"))
	assert.Equal(t, http.StatusOK, get("/health"))
}

func TestRateLimitMiddleware_ForwardedForCannotEvadeLimit(t *testing.T) {
	limiter := newIPLimiter(1, time.Hour)
	handler := rateLimitMiddleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, fwd := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code, "rotated header %s", fwd)
		}
	}
}

func TestClientIP(t *testing.T) {
	proxies := parseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "not-an-ip"}, common.NewSilentLogger())
	require.Len(t, proxies, 2)

	tests := []struct {
		name    string
		remote  string
		fwd     string
		proxies trustedProxies
		want    string
	}{
		{"no proxies ignores header", "203.0.113.7:5000", "198.51.100.1", nil, "203.0.113.7"},
		{"untrusted peer ignores header", "203.0.113.7:5000", "198.51.100.1", proxies, "203.0.113.7"},
		{"trusted peer uses header", "10.1.2.3:5000", "198.51.100.1", proxies, "198.51.100.1"},
		{"skips trusted hops from the right", "10.1.2.3:5000", "1.1.1.1, 198.51.100.1, 192.168.1.10", proxies, "198.51.100.1"},
		{"trusted peer without header", "192.168.1.10:5000", "", proxies, "192.168.1.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.proxies))
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil quote")
	})

	for _, tt := range []struct {
		production bool
		message    string
	}{
		{false, "nil quote"},
		{true, "Something went wrong"},
	} {
		rec := httptest.NewRecorder()
		recoveryMiddleware(common.NewSilentLogger(), tt.production)(panicking).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stock/AAPL/analysis", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Internal server error", body["error"])
		assert.Equal(t, tt.message, body["message"])
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/stock-story", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
