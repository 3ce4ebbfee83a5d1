// Package hub tracks connected subscribers and fans broadcasts out to them.
//
// A single run loop serializes register, unregister and broadcast, so
// membership never needs a lock and a joining subscriber's catch-up can
// never interleave with a live broadcast. Each subscriber has a bounded
// outbound queue; a subscriber that cannot keep up is disconnected rather
// than allowed to stall ingestion or its peers.
package hub
