package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rickgao/kalshi-live/internal/model"
)

const marketsQuery = `
SELECT ticker, event_ticker, title, yes_sub_title,
       expected_expiration_time, estimated_start_time, status
FROM markets
WHERE expected_expiration_time BETWEEN $1 AND $2
ORDER BY ticker`

// PostgresLoader reads markets expiring within a lookahead window from a
// markets table maintained by the gathering pipeline.
type PostgresLoader struct {
	pool      *pgxpool.Pool
	lookahead time.Duration
	logger    *slog.Logger
}

// NewPostgresLoader creates a loader over the given pool.
func NewPostgresLoader(pool *pgxpool.Pool, lookahead time.Duration, logger *slog.Logger) *PostgresLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLoader{
		pool:      pool,
		lookahead: lookahead,
		logger:    logger.With("component", "metadata_postgres"),
	}
}

// Load fetches every market expiring between now and now plus the
// lookahead window.
func (l *PostgresLoader) Load(ctx context.Context) ([]model.Market, error) {
	now := time.Now().UTC()

	rows, err := l.pool.Query(ctx, marketsQuery, now, now.Add(l.lookahead))
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		var (
			m         model.Market
			teamName  *string
			startTime *time.Time
		)
		err := rows.Scan(&m.Ticker, &m.EventTicker, &m.Title, &teamName,
			&m.ExpectedExpirationTime, &startTime, &m.Status)
		if err != nil {
			return nil, fmt.Errorf("scan market row: %w", err)
		}

		if teamName != nil {
			m.TeamName = *teamName
		}
		if startTime != nil {
			m.EstimatedStartTime = *startTime
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read market rows: %w", err)
	}

	l.logger.Info("loaded markets from postgres", "count", len(markets), "lookahead", l.lookahead)
	return markets, nil
}
