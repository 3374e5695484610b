package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darshan15062002/stock-analysis/internal/common"
)

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}

func TestMCPProxy_Get_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/version" {
			t.Errorf("Expected /api/version, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"version": "1.2.3"})
	}))
	defer mockServer.Close()

	proxy := NewMCPProxy(mockServer.URL, testLogger())
	body, err := proxy.get("/api/version")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if result["version"] != "1.2.3" {
		t.Errorf("Expected version=1.2.3, got %s", result["version"])
	}
}

func TestMCPProxy_Get_ErrorEnvelope(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "No data available for this symbol",
			"suggestion": "Verify symbol format",
		})
	}))
	defer mockServer.Close()

	proxy := NewMCPProxy(mockServer.URL, testLogger())
	_, err := proxy.get("/api/stock/NOPE/analysis")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if err.Error() != "No data available for this symbol (Verify symbol format)" {
		t.Errorf("Unexpected error text %q", err.Error())
	}
}

func TestMCPProxy_Get_PlainError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer mockServer.Close()

	proxy := NewMCPProxy(mockServer.URL, testLogger())
	_, err := proxy.get("/api/version")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("Expected status in error, got %v", err)
	}
}

func TestMCPProxy_Get_ServerUnavailable(t *testing.T) {
	proxy := NewMCPProxy("http://localhost:1", testLogger())
	_, err := proxy.get("/api/version")
	if err == nil {
		t.Fatal("Expected error when server is unavailable")
	}
}

func TestMCPProxy_Post_SendsJSON(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"symbol":"AAPL"`) {
			t.Errorf("Unexpected body %s", body)
		}
		w.Write([]byte(`{}`))
	}))
	defer mockServer.Close()

	proxy := NewMCPProxy(mockServer.URL, testLogger())
	if _, err := proxy.post("/api/stock-story", map[string]string{"symbol": "AAPL"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
