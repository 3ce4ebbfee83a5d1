package metadata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/kalshi-live/internal/api"
	"github.com/rickgao/kalshi-live/internal/model"
)

// APILoader fetches markets from the Kalshi REST API.
type APILoader struct {
	client       *api.Client
	seriesTicker string
	status       string
	logger       *slog.Logger
}

// NewAPILoader creates a loader. seriesTicker and status are optional
// filters; empty values fetch everything, which is slow.
func NewAPILoader(client *api.Client, seriesTicker, status string, logger *slog.Logger) *APILoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &APILoader{
		client:       client,
		seriesTicker: seriesTicker,
		status:       status,
		logger:       logger.With("component", "metadata_api"),
	}
}

// Load fetches all markets matching the configured filters.
func (l *APILoader) Load(ctx context.Context) ([]model.Market, error) {
	raw, err := l.client.GetAllMarkets(ctx, api.GetMarketsOptions{
		SeriesTicker: l.seriesTicker,
		Status:       l.status,
	})
	if err != nil {
		return nil, fmt.Errorf("load markets from api: %w", err)
	}

	markets := make([]model.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, raw[i].ToModel())
	}

	l.logger.Info("loaded markets from api",
		"count", len(markets),
		"series_ticker", l.seriesTicker,
		"status", l.status,
	)
	return markets, nil
}
