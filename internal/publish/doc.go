// Package publish joins top-of-book changes with market metadata and
// fans the resulting updates out to websocket subscribers. It also
// builds the catch-up snapshot a subscriber receives on connect: one
// update per registered book, so every client starts from the current
// state of everything being tracked.
package publish
