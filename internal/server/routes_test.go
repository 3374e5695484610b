package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/app"
	"github.com/darshan15062002/stock-analysis/internal/common"
)

func shutdownRequest(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/shutdown", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestShutdown_NotRoutedByDefault(t *testing.T) {
	a := &app.App{Config: common.NewDefaultConfig(), Logger: common.NewSilentLogger()}
	srv := NewServer(a)
	ch := make(chan struct{}, 1)
	srv.SetShutdownChannel(ch)

	assert.Equal(t, http.StatusNotFound, shutdownRequest(srv.Handler(), "127.0.0.1:40000"))
	assert.Equal(t, http.StatusNotFound, shutdownRequest(srv.Handler(), "203.0.113.9:40000"))

	select {
	case <-ch:
		t.Fatal("shutdown signalled while the endpoint is disabled")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestShutdown_LoopbackOnly(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Server.EnableShutdown = true
	srv := NewServer(&app.App{Config: cfg, Logger: common.NewSilentLogger()})
	ch := make(chan struct{}, 1)
	srv.SetShutdownChannel(ch)

	assert.Equal(t, http.StatusForbidden, shutdownRequest(srv.Handler(), "203.0.113.9:40000"))
	select {
	case <-ch:
		t.Fatal("remote caller stopped the server")
	case <-time.After(200 * time.Millisecond):
	}

	require.Equal(t, http.StatusOK, shutdownRequest(srv.Handler(), "[::1]:40000"))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("loopback shutdown was not signalled")
	}
}

func TestShutdown_ForbiddenInProduction(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Environment = "production"
	cfg.Server.EnableShutdown = true
	srv := NewServer(&app.App{Config: cfg, Logger: common.NewSilentLogger()})

	assert.Equal(t, http.StatusForbidden, shutdownRequest(srv.Handler(), "127.0.0.1:40000"))
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("127.0.0.1:1234"))
	assert.True(t, isLoopback("[::1]:1234"))
	assert.True(t, isLoopback("[::ffff:127.0.0.1]:1234"))
	assert.False(t, isLoopback("10.0.0.5:1234"))
	assert.False(t, isLoopback("garbage"))
}
