package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("empty base URL falls back to production", func(t *testing.T) {
		c := NewClient("")
		if c.baseURL != DefaultBaseURL {
			t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
		}
	})

	t.Run("with options", func(t *testing.T) {
		hc := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com",
			WithRetries(5, 2*time.Second),
			WithHTTPClient(hc),
		)
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
		if c.httpClient != hc {
			t.Error("custom HTTP client not set")
		}
	})
}

func TestGetAllMarkets_Pagination(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %q, want /markets", r.URL.Path)
		}

		resp := MarketsResponse{}
		switch calls.Add(1) {
		case 1:
			if got := r.URL.Query().Get("series_ticker"); got != "KXNFLGAME" {
				t.Errorf("series_ticker = %q, want KXNFLGAME", got)
			}
			resp.Markets = []Market{{Ticker: "KXNFLGAME-A"}, {Ticker: "KXNFLGAME-B"}}
			resp.Cursor = "page-2"
		case 2:
			if got := r.URL.Query().Get("cursor"); got != "page-2" {
				t.Errorf("cursor = %q, want page-2", got)
			}
			resp.Markets = []Market{{Ticker: "KXNFLGAME-C"}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	markets, err := c.GetAllMarkets(context.Background(), GetMarketsOptions{SeriesTicker: "KXNFLGAME"})
	if err != nil {
		t.Fatalf("GetAllMarkets: %v", err)
	}

	if len(markets) != 3 {
		t.Fatalf("len(markets) = %d, want 3", len(markets))
	}
	if markets[2].Ticker != "KXNFLGAME-C" {
		t.Errorf("last ticker = %q, want KXNFLGAME-C", markets[2].Ticker)
	}
}

func TestDoWithRetry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(SingleMarketResponse{Market: Market{Ticker: "KXNFLGAME-A"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(3, time.Millisecond))
	m, err := c.GetMarket(context.Background(), "KXNFLGAME-A")
	if err != nil {
		t.Fatalf("GetMarket: %v", err)
	}
	if m.Ticker != "KXNFLGAME-A" {
		t.Errorf("ticker = %q", m.Ticker)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestDoWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(3, time.Millisecond))
	_, err := c.GetMarket(context.Background(), "UNKNOWN")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}
