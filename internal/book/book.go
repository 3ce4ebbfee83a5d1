package book

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rickgao/kalshi-live/internal/model"
)

// Errors
var (
	ErrBookNotFound = errors.New("no order book for ticker")
	ErrInvalidLevel = errors.New("price level out of range")
	ErrInvalidSide  = errors.New("unknown side")
)

// Book is the two-sided price ladder of a single market.
//
// Invariant: every stored quantity is positive. A level whose quantity
// drops to zero or below is removed, never stored as zero.
type Book struct {
	ticker string

	mu  sync.RWMutex
	yes map[int]int // price (cents) -> quantity
	no  map[int]int

	// Derived top-of-book, memoized until the next mutation. Every code
	// path that touches yes/no goes through a method on Book, so clearing
	// it here is the single invalidation point.
	top *model.TopOfBook
}

// NewBook creates an empty book for the given ticker.
func NewBook(ticker string) *Book {
	return &Book{
		ticker: ticker,
		yes:    make(map[int]int),
		no:     make(map[int]int),
	}
}

// Ticker returns the market this book belongs to.
func (b *Book) Ticker() string {
	return b.ticker
}

// ApplySnapshot replaces the full content of each side that is present.
// A nil side leaves that side's existing state untouched; a non-nil empty
// side clears it. Entries with quantity <= 0 are dropped, not stored.
func (b *Book) ApplySnapshot(yes, no []model.PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if yes != nil {
		b.yes = buildSide(yes)
	}
	if no != nil {
		b.no = buildSide(no)
	}
	b.top = nil
}

func buildSide(levels []model.PriceLevel) map[int]int {
	side := make(map[int]int, len(levels))
	for _, lvl := range levels {
		if lvl.Quantity > 0 {
			side[lvl.Price] = lvl.Quantity
		}
	}
	return side
}

// ApplyDelta adjusts the quantity at a single price level. When the new
// quantity is zero or negative the level is removed.
func (b *Book) ApplyDelta(price int, side model.Side, delta int) error {
	if price < 1 || price > 99 {
		return fmt.Errorf("%w: price %d", ErrInvalidLevel, price)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var levels map[int]int
	switch side {
	case model.SideYes:
		levels = b.yes
	case model.SideNo:
		levels = b.no
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}

	newQty := levels[price] + delta
	if newQty <= 0 {
		delete(levels, price)
	} else {
		levels[price] = newQty
	}
	b.top = nil

	return nil
}

// TopOfBook returns the best bid and ask. The bid is the highest YES level;
// the ask is 100 minus the highest NO level. An empty side yields nil price
// and quantity for that side.
func (b *Book) TopOfBook() model.TopOfBook {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.top != nil {
		return *b.top
	}

	top := model.TopOfBook{Ticker: b.ticker}

	if price, qty, ok := maxLevel(b.yes); ok {
		top.BidPrice = &price
		top.BidQuantity = &qty
	}
	if price, qty, ok := maxLevel(b.no); ok {
		ask := 100 - price
		top.AskPrice = &ask
		top.AskQuantity = &qty
	}

	b.top = &top
	return top
}

func maxLevel(side map[int]int) (price, qty int, ok bool) {
	for p, q := range side {
		if !ok || p > price {
			price, qty = p, q
			ok = true
		}
	}
	return price, qty, ok
}

// Depth returns the top N levels of each side: bids sorted by price
// descending, asks (NO prices mapped to 100-price) sorted ascending.
func (b *Book) Depth(levels int) model.Depth {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids := make([]model.PriceLevel, 0, len(b.yes))
	for price, qty := range b.yes {
		bids = append(bids, model.PriceLevel{Price: price, Quantity: qty})
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })

	asks := make([]model.PriceLevel, 0, len(b.no))
	for price, qty := range b.no {
		asks = append(asks, model.PriceLevel{Price: 100 - price, Quantity: qty})
	}
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	if levels > 0 {
		if len(bids) > levels {
			bids = bids[:levels]
		}
		if len(asks) > levels {
			asks = asks[:levels]
		}
	}

	return model.Depth{Bids: bids, Asks: asks}
}

// levelCount returns the number of stored levels per side, for tests and
// debug output.
func (b *Book) levelCount() (yes, no int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.yes), len(b.no)
}
