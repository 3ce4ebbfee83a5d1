// Package metadata loads market reference data (titles, teams, expiration
// times) at startup and serves it from memory. The store is read-only
// after Replace; lookups never touch the backing source.
//
// Two sources are supported: the Kalshi REST API and a PostgreSQL
// markets table populated by a separate gathering pipeline.
package metadata
