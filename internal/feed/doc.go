// Package feed consumes the Kalshi orderbook websocket channel.
//
// The Client wraps a single authenticated websocket connection. The
// Processor owns the ingestion loop: it subscribes, decodes each message
// into a typed Event, applies snapshots and deltas to the book registry,
// and emits a top-of-book value whenever an update actually changed it.
// That change gate is the only source of outbound traffic; deltas away
// from the best price produce nothing.
//
// On connection loss the Processor reconnects with exponential backoff and
// re-subscribes. Books are considered stale from the disconnect until the
// next snapshot for their ticker; stale tickers keep absorbing deltas but
// are not broadcast as live.
package feed
