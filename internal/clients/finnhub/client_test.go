package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

func TestFetchQuote_ParsesResponse(t *testing.T) {
	var capturedPath, capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.URL.Query().Get("token")
		w.Write([]byte(`{"c":187.2,"d":1.1,"dp":0.59,"h":188,"l":185,"o":186,"pc":186.1,"t":1760630400}`))
	}))
	defer srv.Close()

	quote, err := NewClient("tok", WithBaseURL(srv.URL)).FetchQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if capturedPath != "/quote" {
		t.Errorf("expected path /quote, got %s", capturedPath)
	}
	if capturedToken != "tok" {
		t.Errorf("expected token tok, got %s", capturedToken)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", quote.Symbol)
	}
	if models.Value(quote.Price) != 187.2 {
		t.Errorf("expected price 187.2, got %v", models.Value(quote.Price))
	}
}

func TestFetchQuote_UnknownSymbolIsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	}))
	defer srv.Close()

	_, err := NewClient("tok", WithBaseURL(srv.URL)).FetchQuote(context.Background(), "ZZZZ")
	var fe *models.FetchError
	if !errors.As(err, &fe) || fe.Kind != models.FetchMissing {
		t.Fatalf("expected missing FetchError, got %v", err)
	}
}

func TestFetchQuote_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid API key."}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).FetchQuote(context.Background(), "AAPL")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", apiErr.StatusCode)
	}
}

func TestFetchNews_MapsItems(t *testing.T) {
	var from, to string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from = r.URL.Query().Get("from")
		to = r.URL.Query().Get("to")
		w.Write([]byte(`[
			{"category":"company","datetime":1760630400,"headline":"Apple beats estimates","id":1,"related":"AAPL","source":"Reuters","summary":"s","url":"https://example.com/a"},
			{"category":"company","datetime":1760630500,"headline":"","id":2,"related":"AAPL","source":"x","summary":"","url":""}
		]`))
	}))
	defer srv.Close()

	end := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	items, err := NewClient("tok", WithBaseURL(srv.URL)).FetchNews(context.Background(), "AAPL", end.AddDate(0, 0, -7), end)
	if err != nil {
		t.Fatalf("FetchNews failed: %v", err)
	}
	if from != "2026-10-12" || to != "2026-10-19" {
		t.Errorf("unexpected window %s..%s", from, to)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item (empty headline dropped), got %d", len(items))
	}
	if items[0].Source != "Reuters" || items[0].PublishedAt.Unix() != 1760630400 {
		t.Errorf("unexpected item %+v", items[0])
	}
}
