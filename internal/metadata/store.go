package metadata

import (
	"context"
	"sort"
	"sync"

	"github.com/rickgao/kalshi-live/internal/model"
)

// Loader produces the full set of markets to serve.
type Loader interface {
	Load(ctx context.Context) ([]model.Market, error)
}

// Store is an in-memory market lookup keyed by ticker.
type Store struct {
	mu      sync.RWMutex
	markets map[string]model.Market
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{markets: make(map[string]model.Market)}
}

// Replace swaps the store contents for the given markets. Later entries
// with the same ticker win.
func (s *Store) Replace(markets []model.Market) {
	next := make(map[string]model.Market, len(markets))
	for _, m := range markets {
		next[m.Ticker] = m
	}

	s.mu.Lock()
	s.markets = next
	s.mu.Unlock()
}

// Get returns the market for ticker, if known.
func (s *Store) Get(ticker string) (model.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[ticker]
	return m, ok
}

// Tickers returns all known tickers, sorted.
func (s *Store) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.markets))
	for t := range s.markets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known markets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markets)
}
