package book

import (
	"fmt"
	"sync"

	"github.com/rickgao/kalshi-live/internal/model"
)

// Registry owns the set of order books, keyed by ticker. Books are created
// lazily on first snapshot and live for the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		books: make(map[string]*Book),
	}
}

// EnsureBook returns the book for ticker, creating and registering an empty
// one if none exists. Idempotent.
func (r *Registry) EnsureBook(ticker string) *Book {
	r.mu.RLock()
	b, ok := r.books[ticker]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[ticker]; ok {
		return b
	}
	b = NewBook(ticker)
	r.books[ticker] = b
	return b
}

// ApplySnapshot ensures the book exists and applies the snapshot to it.
func (r *Registry) ApplySnapshot(ticker string, yes, no []model.PriceLevel) {
	r.EnsureBook(ticker).ApplySnapshot(yes, no)
}

// ApplyDelta applies a delta to the book for ticker. A delta for an
// unregistered ticker fails with ErrBookNotFound; callers drop the update
// and keep processing.
func (r *Registry) ApplyDelta(ticker string, price int, side model.Side, delta int) error {
	b, ok := r.Get(ticker)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBookNotFound, ticker)
	}
	return b.ApplyDelta(price, side, delta)
}

// Get returns the book for ticker, or false if none is registered.
func (r *Registry) Get(ticker string) (*Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[ticker]
	return b, ok
}

// ListTickers returns the registered tickers in unspecified order.
func (r *Registry) ListTickers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickers := make([]string, 0, len(r.books))
	for t := range r.books {
		tickers = append(tickers, t)
	}
	return tickers
}
