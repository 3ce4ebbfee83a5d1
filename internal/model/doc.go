// Package model defines shared data types used across the live dissemination service.
//
// Conventions:
//   - Prices: integer cents (1-99), the probability of the YES outcome
//   - A NO level at price X is economically an ask at price (100 - X)
//   - Timestamps: time.Time, serialized as RFC 3339 strings on the wire
package model
