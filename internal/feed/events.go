package feed

import (
	"encoding/json"
	"fmt"

	"github.com/rickgao/kalshi-live/internal/model"
)

// Event is a typed message from the upstream feed. The set is closed:
// SubscribedEvent, SnapshotEvent, DeltaEvent, ErrorEvent and OtherEvent.
// Anything the decoder does not recognize arrives as OtherEvent, so new
// upstream message types surface in logs instead of being dropped silently.
type Event interface {
	isEvent()
}

// SubscribedEvent confirms a subscribe command.
type SubscribedEvent struct {
	Channel string
	SID     int64
}

// SnapshotEvent is a full replacement of one or both sides of a book.
// A side absent from the wire message is nil, which leaves that side's
// existing state untouched when applied.
type SnapshotEvent struct {
	Ticker string
	Yes    []model.PriceLevel
	No     []model.PriceLevel
}

// DeltaEvent is an incremental quantity change at a single price level.
type DeltaEvent struct {
	Ticker string
	Price  int
	Delta  int
	Side   model.Side
}

// ErrorEvent is an error reported by the feed.
type ErrorEvent struct {
	Code    string
	Message string
}

// OtherEvent is any message type the decoder does not recognize.
type OtherEvent struct {
	Type string
	Raw  json.RawMessage
}

func (SubscribedEvent) isEvent() {}
func (SnapshotEvent) isEvent()   {}
func (DeltaEvent) isEvent()      {}
func (ErrorEvent) isEvent()      {}
func (OtherEvent) isEvent()      {}

// Wire types for JSON parsing

type eventEnvelope struct {
	Type string          `json:"type"`
	SID  int64           `json:"sid"`
	Msg  json.RawMessage `json:"msg"`
}

type subscribedWire struct {
	Channel string `json:"channel"`
	SID     int64  `json:"sid"`
}

type snapshotWire struct {
	MarketTicker string  `json:"market_ticker"`
	Yes          [][]int `json:"yes"` // [[price, quantity], ...]
	No           [][]int `json:"no"`
}

type deltaWire struct {
	MarketTicker string `json:"market_ticker"`
	Price        int    `json:"price"`
	Delta        int    `json:"delta"`
	Side         string `json:"side"`
}

type errorWire struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeEvent parses a raw feed message into a typed Event.
func DecodeEvent(data []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case "subscribed":
		var w subscribedWire
		if err := json.Unmarshal(env.Msg, &w); err != nil {
			return nil, fmt.Errorf("decode subscribed: %w", err)
		}
		sid := w.SID
		if sid == 0 {
			sid = env.SID
		}
		return SubscribedEvent{Channel: w.Channel, SID: sid}, nil

	case "orderbook_snapshot":
		var w snapshotWire
		if err := json.Unmarshal(env.Msg, &w); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		return SnapshotEvent{
			Ticker: w.MarketTicker,
			Yes:    parseLevels(w.Yes),
			No:     parseLevels(w.No),
		}, nil

	case "orderbook_delta":
		var w deltaWire
		if err := json.Unmarshal(env.Msg, &w); err != nil {
			return nil, fmt.Errorf("decode delta: %w", err)
		}
		return DeltaEvent{
			Ticker: w.MarketTicker,
			Price:  w.Price,
			Delta:  w.Delta,
			Side:   model.Side(w.Side),
		}, nil

	case "error":
		var w errorWire
		if err := json.Unmarshal(env.Msg, &w); err != nil {
			return nil, fmt.Errorf("decode error message: %w", err)
		}
		return ErrorEvent{Code: w.Code, Message: w.Message}, nil

	default:
		return OtherEvent{Type: env.Type, Raw: env.Msg}, nil
	}
}

// parseLevels converts wire [[price, quantity], ...] pairs. A nil input
// (side absent from the message) stays nil; a present but empty side
// becomes an empty, non-nil slice. Malformed pairs are skipped.
func parseLevels(pairs [][]int) []model.PriceLevel {
	if pairs == nil {
		return nil
	}
	out := make([]model.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		out = append(out, model.PriceLevel{Price: p[0], Quantity: p[1]})
	}
	return out
}
