package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darshan15062002/stock-analysis/internal/app"
	"github.com/darshan15062002/stock-analysis/internal/server"
)

// writeTestConfig writes a config using embedded storage and no provider keys.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := `environment = "test"

[server]
audio_dir = "` + filepath.ToSlash(filepath.Join(dir, "audio")) + `"

[cache]
enabled = true
in_memory = true

[storage]
backend = "badger"

[storage.badger]
path = "` + filepath.ToSlash(filepath.Join(dir, "subs")) + `"

[logging]
level = "disabled"
`
	path := filepath.Join(dir, "clearstock.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testServer creates an httptest.Server with the full server handler.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "DATABASE_URL", "ELEVEN_API_KEY", "ELEVENLABS_API_KEY"} {
		t.Setenv(key, "")
	}

	a, err := app.NewApp(context.Background(), writeTestConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ts := httptest.NewServer(server.NewServer(a).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status   string `json:"status"`
		Services struct {
			Gemini  bool   `json:"gemini"`
			Storage string `json:"storage"`
		} `json:"services"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.Services.Gemini)
	assert.Equal(t, "badger", body.Services.Storage)
}

func TestVersionEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/version")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["version"])
}

func TestSubscriptionRoundTrip(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/user/subscribe", "application/json",
		strings.NewReader(`{"email":"round@trip.io","frequency":"daily"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/user/subscription/round@trip.io")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
