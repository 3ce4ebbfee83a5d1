package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/kalshi-live/internal/book"
	"github.com/rickgao/kalshi-live/internal/hub"
	"github.com/rickgao/kalshi-live/internal/metadata"
	"github.com/rickgao/kalshi-live/internal/model"
)

// Publisher consumes top-of-book changes, enriches them with market
// metadata, and broadcasts the result. Changes for tickers missing from
// the metadata store are dropped with a warning.
type Publisher struct {
	books   *book.Registry
	markets *metadata.Store
	hub     *hub.Hub
	changes <-chan model.TopOfBook
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisher wires the publisher between the change stream and the hub,
// and installs itself as the hub's catch-up source. Call before hub.Start.
func NewPublisher(books *book.Registry, markets *metadata.Store, h *hub.Hub, changes <-chan model.TopOfBook, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		books:   books,
		markets: markets,
		hub:     h,
		changes: changes,
		logger:  logger.With("component", "publisher"),
	}
	h.SetCatchUp(p.snapshot)
	return p
}

// Start begins consuming the change stream.
func (p *Publisher) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("publisher started", "known_markets", p.markets.Len())
	return nil
}

// Stop halts the publish loop.
func (p *Publisher) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("publisher stopped")
	case <-ctx.Done():
		p.logger.Warn("publisher stop timed out")
	}
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case top, ok := <-p.changes:
			if !ok {
				return
			}
			p.publish(top)
		}
	}
}

func (p *Publisher) publish(top model.TopOfBook) {
	update, ok := p.enrich(top)
	if !ok {
		return
	}

	data, err := json.Marshal(update)
	if err != nil {
		p.logger.Error("marshal update", "ticker", top.Ticker, "error", err)
		return
	}
	p.hub.Broadcast(data)
}

// enrich joins a top-of-book with its market metadata.
func (p *Publisher) enrich(top model.TopOfBook) (model.BookUpdate, bool) {
	m, ok := p.markets.Get(top.Ticker)
	if !ok {
		p.logger.Warn("no metadata for ticker, dropping update", "ticker", top.Ticker)
		return model.BookUpdate{}, false
	}

	update := model.BookUpdate{
		TopOfBook:                 top,
		EventTicker:               m.EventTicker,
		Title:                     m.Title,
		TeamName:                  m.TeamName,
		ExpectedExpirationTimeUTC: m.ExpectedExpirationTime.UTC().Format(time.RFC3339),
		GameStartTimeMT:           m.GameStartTime().Format(time.RFC3339),
	}
	if !m.EstimatedStartTime.IsZero() {
		update.EstimatedStartTime = m.EstimatedStartTime.UTC().Format(time.RFC3339)
	}
	return update, true
}

// snapshot builds the catch-up payload: one update per registered book,
// in ticker order. Books whose ticker has no metadata are skipped, same
// as on the live path.
func (p *Publisher) snapshot() [][]byte {
	tickers := p.books.ListTickers()
	sort.Strings(tickers)
	msgs := make([][]byte, 0, len(tickers))

	for _, ticker := range tickers {
		b, ok := p.books.Get(ticker)
		if !ok {
			continue
		}

		update, ok := p.enrich(b.TopOfBook())
		if !ok {
			continue
		}
		data, err := json.Marshal(update)
		if err != nil {
			p.logger.Error("marshal catch-up update", "ticker", ticker, "error", err)
			continue
		}
		msgs = append(msgs, data)
	}
	return msgs
}
