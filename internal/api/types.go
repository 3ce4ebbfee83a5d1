package api

// MarketsResponse from GET /markets.
type MarketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

// Market is the subset of the Kalshi market object this service reads.
type Market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	YesSubTitle string `json:"yes_sub_title"`
	Status      string `json:"status"`

	// Timestamps (ISO 8601)
	ExpectedExpirationTime string `json:"expected_expiration_time"`
	EstimatedStartTime     string `json:"estimated_start_time"`
}

// SingleMarketResponse from GET /markets/{ticker}.
type SingleMarketResponse struct {
	Market Market `json:"market"`
}

// GetMarketsOptions configures a GetMarkets request.
type GetMarketsOptions struct {
	Limit        int
	Cursor       string
	EventTicker  string
	SeriesTicker string
	Tickers      []string
	Status       string
}
