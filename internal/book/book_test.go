package book

import (
	"errors"
	"testing"

	"github.com/rickgao/kalshi-live/internal/model"
)

func levels(pairs ...[2]int) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.PriceLevel{Price: p[0], Quantity: p[1]})
	}
	return out
}

func wantTop(t *testing.T, got model.TopOfBook, bidPrice, bidQty, askPrice, askQty int) {
	t.Helper()
	checkSide := func(name string, got *int, want int) {
		t.Helper()
		if want < 0 {
			if got != nil {
				t.Errorf("%s = %d, want nil", name, *got)
			}
			return
		}
		if got == nil {
			t.Errorf("%s = nil, want %d", name, want)
		} else if *got != want {
			t.Errorf("%s = %d, want %d", name, *got, want)
		}
	}
	checkSide("BidPrice", got.BidPrice, bidPrice)
	checkSide("BidQuantity", got.BidQuantity, bidQty)
	checkSide("AskPrice", got.AskPrice, askPrice)
	checkSide("AskQuantity", got.AskQuantity, askQty)
}

func TestBook_SnapshotTopOfBook(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}, [2]int{50, 5}), levels([2]int{40, 3}))

	top := b.TopOfBook()
	if top.Ticker != "TEST-MARKET" {
		t.Errorf("Ticker = %q, want %q", top.Ticker, "TEST-MARKET")
	}
	// Best bid is the highest YES level; NO 40 maps to an ask of 60.
	wantTop(t, top, 50, 5, 60, 3)
}

func TestBook_DeltaRemovesBestLevel(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}, [2]int{50, 5}), levels([2]int{40, 3}))

	if err := b.ApplyDelta(50, model.SideYes, -5); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	wantTop(t, b.TopOfBook(), 45, 10, 60, 3)

	yes, _ := b.levelCount()
	if yes != 1 {
		t.Errorf("yes levels = %d, want 1 (removed level must not linger)", yes)
	}
}

func TestBook_DeltaAwayFromTopDoesNotChangeIt(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}, [2]int{50, 5}), levels([2]int{40, 3}))

	before := b.TopOfBook()
	if err := b.ApplyDelta(30, model.SideYes, 2); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	after := b.TopOfBook()

	if !before.Equal(after) {
		t.Errorf("top of book changed: before=%+v after=%+v", before, after)
	}
}

func TestBook_EmptySidesAreNil(t *testing.T) {
	b := NewBook("TEST-MARKET")

	// Both sides empty.
	wantTop(t, b.TopOfBook(), -1, -1, -1, -1)

	// Only a bid.
	b.ApplySnapshot(levels([2]int{45, 10}), nil)
	wantTop(t, b.TopOfBook(), 45, 10, -1, -1)

	// Only an ask.
	b2 := NewBook("TEST-MARKET-2")
	b2.ApplySnapshot(nil, levels([2]int{40, 3}))
	wantTop(t, b2.TopOfBook(), -1, -1, 60, 3)
}

func TestBook_SnapshotAbsentSideUntouched(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}), levels([2]int{40, 3}))

	// A snapshot carrying only the YES side must not clear the NO side.
	b.ApplySnapshot(levels([2]int{55, 2}), nil)
	wantTop(t, b.TopOfBook(), 55, 2, 60, 3)

	// An explicitly empty side is a full replacement with nothing.
	b.ApplySnapshot(levels([2]int{55, 2}), []model.PriceLevel{})
	wantTop(t, b.TopOfBook(), 55, 2, -1, -1)
}

func TestBook_SnapshotDropsZeroQuantities(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}, [2]int{50, 0}, [2]int{55, -1}), nil)

	yes, _ := b.levelCount()
	if yes != 1 {
		t.Errorf("yes levels = %d, want 1 (zero and negative quantities dropped)", yes)
	}
	wantTop(t, b.TopOfBook(), 45, 10, -1, -1)
}

func TestBook_DeltaNeverStoresNonPositive(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}), nil)

	// Over-removal removes the level rather than storing a negative.
	if err := b.ApplyDelta(45, model.SideYes, -25); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	yes, _ := b.levelCount()
	if yes != 0 {
		t.Errorf("yes levels = %d, want 0", yes)
	}

	// Delta creating a level from nothing.
	if err := b.ApplyDelta(30, model.SideNo, 7); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	wantTop(t, b.TopOfBook(), -1, -1, 70, 7)
}

func TestBook_DeltaInvalidInput(t *testing.T) {
	b := NewBook("TEST-MARKET")

	if err := b.ApplyDelta(0, model.SideYes, 1); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("price 0: err = %v, want ErrInvalidLevel", err)
	}
	if err := b.ApplyDelta(100, model.SideYes, 1); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("price 100: err = %v, want ErrInvalidLevel", err)
	}
	if err := b.ApplyDelta(50, model.Side("maybe"), 1); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("bad side: err = %v, want ErrInvalidSide", err)
	}

	// Failed deltas must not mutate anything.
	yes, no := b.levelCount()
	if yes != 0 || no != 0 {
		t.Errorf("levels = %d/%d, want 0/0 after rejected deltas", yes, no)
	}
}

func TestBook_CacheInvalidation(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(levels([2]int{45, 10}), nil)

	first := b.TopOfBook()
	wantTop(t, first, 45, 10, -1, -1)

	// Mutation through each path must invalidate the cached value.
	if err := b.ApplyDelta(50, model.SideYes, 5); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	wantTop(t, b.TopOfBook(), 50, 5, -1, -1)

	b.ApplySnapshot(levels([2]int{20, 1}), nil)
	wantTop(t, b.TopOfBook(), 20, 1, -1, -1)
}

func TestBook_Depth(t *testing.T) {
	b := NewBook("TEST-MARKET")
	b.ApplySnapshot(
		levels([2]int{45, 10}, [2]int{50, 5}, [2]int{30, 2}),
		levels([2]int{40, 3}, [2]int{35, 8}, [2]int{20, 1}),
	)

	d := b.Depth(2)

	if len(d.Bids) != 2 || len(d.Asks) != 2 {
		t.Fatalf("depth sizes = %d/%d, want 2/2", len(d.Bids), len(d.Asks))
	}
	if d.Bids[0].Price != 50 || d.Bids[1].Price != 45 {
		t.Errorf("bids = %+v, want prices [50 45]", d.Bids)
	}
	// NO 40 -> ask 60, NO 35 -> ask 65, NO 20 -> ask 80; best two ascending.
	if d.Asks[0].Price != 60 || d.Asks[0].Quantity != 3 {
		t.Errorf("asks[0] = %+v, want 60/3", d.Asks[0])
	}
	if d.Asks[1].Price != 65 || d.Asks[1].Quantity != 8 {
		t.Errorf("asks[1] = %+v, want 65/8", d.Asks[1])
	}
}
