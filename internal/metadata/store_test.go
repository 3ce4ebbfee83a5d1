package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/rickgao/kalshi-live/internal/api"
	"github.com/rickgao/kalshi-live/internal/model"
)

func TestStore_ReplaceAndGet(t *testing.T) {
	s := NewStore()

	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if _, ok := s.Get("KXNFLGAME-A"); ok {
		t.Error("Get on empty store should miss")
	}

	s.Replace([]model.Market{
		{Ticker: "KXNFLGAME-B", TeamName: "Packers"},
		{Ticker: "KXNFLGAME-A", TeamName: "Lions"},
		{Ticker: "KXNFLGAME-A", TeamName: "Lions (updated)"},
	})

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	m, ok := s.Get("KXNFLGAME-A")
	if !ok {
		t.Fatal("Get missed after Replace")
	}
	if m.TeamName != "Lions (updated)" {
		t.Errorf("TeamName = %q, later entry should win", m.TeamName)
	}

	if got, want := s.Tickers(), []string{"KXNFLGAME-A", "KXNFLGAME-B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tickers = %v, want %v", got, want)
	}
}

func TestStore_ReplaceDropsOldEntries(t *testing.T) {
	s := NewStore()
	s.Replace([]model.Market{{Ticker: "OLD"}})
	s.Replace([]model.Market{{Ticker: "NEW"}})

	if _, ok := s.Get("OLD"); ok {
		t.Error("OLD should be gone after second Replace")
	}
	if _, ok := s.Get("NEW"); !ok {
		t.Error("NEW should be present")
	}
}

func TestAPILoader_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_ticker"); got != "KXNFLGAME" {
			t.Errorf("series_ticker = %q", got)
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Errorf("status = %q", got)
		}
		json.NewEncoder(w).Encode(api.MarketsResponse{
			Markets: []api.Market{{
				Ticker:                 "KXNFLGAME-25SEP13DETGB-DET",
				EventTicker:            "KXNFLGAME-25SEP13DETGB",
				Title:                  "Lions at Packers Winner?",
				YesSubTitle:            "Detroit Lions",
				Status:                 "open",
				ExpectedExpirationTime: "2025-09-14T02:00:00Z",
			}},
		})
	}))
	defer srv.Close()

	loader := NewAPILoader(api.NewClient(srv.URL), "KXNFLGAME", "open", nil)
	markets, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(markets) != 1 {
		t.Fatalf("len(markets) = %d, want 1", len(markets))
	}
	m := markets[0]
	if m.TeamName != "Detroit Lions" {
		t.Errorf("TeamName = %q", m.TeamName)
	}
	if want := time.Date(2025, 9, 14, 2, 0, 0, 0, time.UTC); !m.ExpectedExpirationTime.Equal(want) {
		t.Errorf("ExpectedExpirationTime = %v, want %v", m.ExpectedExpirationTime, want)
	}
}
