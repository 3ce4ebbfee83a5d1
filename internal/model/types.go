package model

import "time"

// Side identifies one of the two outcomes of a binary market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// PriceLevel is a single price point on one side of an order book.
type PriceLevel struct {
	Price    int // Price in cents (1-99)
	Quantity int // Contracts resting at this price
}

// TopOfBook is the best bid and ask for a market. A side with no resting
// orders has nil price and quantity; that is a normal state, not an error.
type TopOfBook struct {
	Ticker      string `json:"ticker"`
	BidPrice    *int   `json:"bid_price"`
	BidQuantity *int   `json:"bid_quantity"`
	AskPrice    *int   `json:"ask_price"`
	AskQuantity *int   `json:"ask_quantity"`
}

// Equal reports structural equality over all five fields. It is the gate
// that decides whether a book mutation is broadcast.
func (t TopOfBook) Equal(o TopOfBook) bool {
	return t.Ticker == o.Ticker &&
		intPtrEqual(t.BidPrice, o.BidPrice) &&
		intPtrEqual(t.BidQuantity, o.BidQuantity) &&
		intPtrEqual(t.AskPrice, o.AskPrice) &&
		intPtrEqual(t.AskQuantity, o.AskQuantity)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Depth holds the top N levels of each side of a book. Bids are sorted by
// price descending, asks by price ascending.
type Depth struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Market is the reference metadata for a single tradeable market, loaded
// once at startup from the backing store and read-only afterwards.
type Market struct {
	Ticker                 string
	EventTicker            string
	Title                  string
	TeamName               string // Kalshi's yes_sub_title
	ExpectedExpirationTime time.Time
	EstimatedStartTime     time.Time
	Status                 string
}

// mountain is the fixed local timezone used for game start times.
var mountain = mustLoadLocation("America/Denver")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GameStartTime derives the game start from the market expiration: markets
// for a game expire three hours after it starts, in Mountain Time.
func (m Market) GameStartTime() time.Time {
	return m.ExpectedExpirationTime.In(mountain).Add(-3 * time.Hour)
}

// BookUpdate is the message pushed to subscribers: a top-of-book joined
// with market metadata. One is sent per registered book on connect
// (catch-up), then one per detected top-of-book change.
type BookUpdate struct {
	TopOfBook
	EventTicker               string `json:"event_ticker"`
	Title                     string `json:"title"`
	TeamName                  string `json:"team_name"`
	ExpectedExpirationTimeUTC string `json:"expected_expiration_time_utc"`
	GameStartTimeMT           string `json:"game_start_time_mt"`
	EstimatedStartTime        string `json:"estimated_start_time"`
}
