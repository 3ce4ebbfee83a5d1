// Package api is a minimal Kalshi REST client, used at startup to load
// market metadata for the tickers being streamed.
//
// Endpoints:
//   - Production: https://api.elections.kalshi.com/trade-api/v2
//   - Demo: https://demo-api.kalshi.co/trade-api/v2
package api
