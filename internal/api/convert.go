package api

import (
	"time"

	"github.com/rickgao/kalshi-live/internal/model"
)

// ParseTimestamp parses an ISO 8601 timestamp. Zero time for empty or
// unparseable input; expiration times in the feed always carry a zone.
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t
}

// ToModel converts the API market object to reference metadata.
func (m *Market) ToModel() model.Market {
	return model.Market{
		Ticker:                 m.Ticker,
		EventTicker:            m.EventTicker,
		Title:                  m.Title,
		TeamName:               m.YesSubTitle,
		ExpectedExpirationTime: ParseTimestamp(m.ExpectedExpirationTime),
		EstimatedStartTime:     ParseTimestamp(m.EstimatedStartTime),
		Status:                 m.Status,
	}
}
