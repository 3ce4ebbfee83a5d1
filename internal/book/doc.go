// Package book maintains in-memory order-book state for Kalshi markets.
//
// A Book holds the two price ladders (YES and NO) of a single market and
// answers top-of-book and depth queries. The Registry owns the set of books,
// keyed by ticker, and routes snapshot/delta updates to them.
//
// State is rebuilt from the next snapshot on restart; nothing is persisted.
// The feed processor is the single writer; all other goroutines read under
// the books' read locks.
package book
