package feed

import (
	"errors"
	"time"

	"github.com/rickgao/kalshi-live/internal/auth"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrStaleFeed     = errors.New("feed stale (no ping)")
)

// ClientConfig configures a websocket connection to the feed.
type ClientConfig struct {
	URL          string            // e.g. wss://api.elections.kalshi.com/trade-api/ws/v2
	Credentials  *auth.Credentials // nil = unsigned handshake
	PingInterval time.Duration     // keepalive ping cadence
	PingTimeout  time.Duration     // max silence before the connection is stale
	WriteTimeout time.Duration     // write deadline for sends
	BufferSize   int               // inbound message channel capacity
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 15 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000,
	}
}

// ProcessorConfig configures the ingestion loop.
type ProcessorConfig struct {
	Client             ClientConfig
	Channels           []string // feed channels, e.g. ["orderbook_delta"]
	Tickers            []string // market tickers to subscribe
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	ChangeBufferSize   int // capacity of the emitted change channel
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Client:             DefaultClientConfig(),
		Channels:           []string{"orderbook_delta"},
		ReconnectBaseDelay: time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		ChangeBufferSize:   1000,
	}
}

// subscribeCommand is the wire format of the subscribe request.
type subscribeCommand struct {
	ID     int64           `json:"id"`
	Cmd    string          `json:"cmd"`
	Params subscribeParams `json:"params"`
}

type subscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers,omitempty"`
}
