package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/kalshi-live/internal/book"
	"github.com/rickgao/kalshi-live/internal/model"
)

// Processor is the single-writer ingestion task. It is the only goroutine
// that mutates the book registry; everything downstream sees books through
// their read locks and top-of-book changes through Changes().
type Processor struct {
	cfg    ProcessorConfig
	books  *book.Registry
	logger *slog.Logger

	// newClient is swapped out by tests.
	newClient func(ClientConfig, *slog.Logger) Client

	changes chan model.TopOfBook

	// Tickers whose book state predates the last disconnect. They keep
	// absorbing deltas but are not broadcast until a fresh snapshot.
	stale map[string]struct{}

	cmdID int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates an ingestion processor over the given registry.
func NewProcessor(cfg ProcessorConfig, books *book.Registry, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:       cfg,
		books:     books,
		logger:    logger,
		newClient: NewClient,
		changes:   make(chan model.TopOfBook, cfg.ChangeBufferSize),
		stale:     make(map[string]struct{}),
	}
}

// Changes returns the channel of top-of-book changes for dissemination.
func (p *Processor) Changes() <-chan model.TopOfBook {
	return p.changes
}

// Start begins the ingestion loop.
func (p *Processor) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("feed processor started",
		"channels", p.cfg.Channels,
		"tickers", len(p.cfg.Tickers),
	)
	return nil
}

// Stop shuts the ingestion loop down and closes the change channel.
func (p *Processor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	// run sends on p.changes, so the channel may only be closed after the
	// goroutine has exited. On a stop timeout the close still happens once
	// the goroutine eventually finishes.
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(p.changes)
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("feed processor stopped")
	case <-ctx.Done():
		p.logger.Warn("feed processor stop timed out")
	}

	return nil
}

// run owns the connect / consume / reconnect cycle.
func (p *Processor) run() {
	defer p.wg.Done()

	delay := p.cfg.ReconnectBaseDelay
	for {
		client, err := p.connectAndSubscribe()
		if err != nil {
			p.logger.Warn("feed connect failed", "error", err, "retry_in", delay)
			if !p.sleep(delay) {
				return
			}
			delay = nextDelay(delay, p.cfg.ReconnectMaxDelay)
			continue
		}
		delay = p.cfg.ReconnectBaseDelay

		err = p.consume(client)
		client.Close()
		if err == nil {
			// Shutdown requested.
			return
		}

		p.logger.Warn("feed disconnected, state stale until next snapshot", "error", err)
		p.markAllStale()
		if !p.sleep(delay) {
			return
		}
		delay = nextDelay(delay, p.cfg.ReconnectMaxDelay)
	}
}

func (p *Processor) sleep(d time.Duration) bool {
	select {
	case <-p.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		d = max
	}
	return d
}

func (p *Processor) connectAndSubscribe() (Client, error) {
	client := p.newClient(p.cfg.Client, p.logger)
	if err := client.Connect(p.ctx); err != nil {
		return nil, err
	}

	cmd := subscribeCommand{
		ID:  atomic.AddInt64(&p.cmdID, 1),
		Cmd: "subscribe",
		Params: subscribeParams{
			Channels:      p.cfg.Channels,
			MarketTickers: p.cfg.Tickers,
		},
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		client.Close()
		return nil, err
	}
	if err := client.Send(data); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// consume drains one connection until it fails or the processor stops.
// A nil return means shutdown; non-nil means reconnect.
func (p *Processor) consume(client Client) error {
	for {
		select {
		case <-p.ctx.Done():
			return nil

		case err := <-client.Errors():
			return err

		case data, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}
			ev, err := DecodeEvent(data)
			if err != nil {
				p.logger.Warn("undecodable feed message", "error", err)
				continue
			}
			p.process(ev)
		}
	}
}

// process applies one event and emits a change when the top of book moved.
func (p *Processor) process(ev Event) {
	switch e := ev.(type) {
	case SnapshotEvent:
		prev, hadPrev := p.currentTop(e.Ticker)
		p.books.ApplySnapshot(e.Ticker, e.Yes, e.No)
		delete(p.stale, e.Ticker)
		p.emitIfChanged(e.Ticker, prev, hadPrev)

	case DeltaEvent:
		prev, hadPrev := p.currentTop(e.Ticker)
		if err := p.books.ApplyDelta(e.Ticker, e.Price, e.Side, e.Delta); err != nil {
			p.logger.Warn("dropping delta",
				"ticker", e.Ticker,
				"price", e.Price,
				"side", e.Side,
				"error", err,
			)
			return
		}
		if _, isStale := p.stale[e.Ticker]; isStale {
			return
		}
		p.emitIfChanged(e.Ticker, prev, hadPrev)

	case SubscribedEvent:
		p.logger.Info("subscribed", "channel", e.Channel, "sid", e.SID)

	case ErrorEvent:
		p.logger.Error("feed error", "code", e.Code, "message", e.Message)

	case OtherEvent:
		p.logger.Info("unhandled feed message", "type", e.Type)
	}
}

func (p *Processor) currentTop(ticker string) (model.TopOfBook, bool) {
	b, ok := p.books.Get(ticker)
	if !ok {
		return model.TopOfBook{}, false
	}
	return b.TopOfBook(), true
}

// emitIfChanged compares the new top of book against prev and emits on
// structural inequality. An absent book counts as distinct from any
// present top, so the first snapshot for a ticker always emits.
func (p *Processor) emitIfChanged(ticker string, prev model.TopOfBook, hadPrev bool) {
	b, ok := p.books.Get(ticker)
	if !ok {
		return
	}
	newTop := b.TopOfBook()

	if hadPrev && prev.Equal(newTop) {
		return
	}

	select {
	case p.changes <- newTop:
	default:
		p.logger.Warn("change buffer full, dropping top-of-book update", "ticker", ticker)
	}
}

// markAllStale flags every known ticker after a disconnect. Only run from
// the ingestion goroutine.
func (p *Processor) markAllStale() {
	for _, ticker := range p.books.ListTickers() {
		p.stale[ticker] = struct{}{}
	}
}
