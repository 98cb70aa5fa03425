package interfaces

import (
	"context"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// FundamentalSource aggregates market sentiment and per-coin metrics.
// Implementations cache aggressively; callers treat every method as
// potentially slow and degrade gracefully on error.
type FundamentalSource interface {
	FearGreed(ctx context.Context) (*types.FearGreed, error)
	CoinMetrics(ctx context.Context, tickers []string) (map[string]types.CoinMetrics, error)
	News(ctx context.Context, tickers []string, limit int) ([]types.NewsItem, error)
	All(ctx context.Context, tickers []string) (types.FundamentalData, error)
}

// NewsProvider supplies headlines for a set of tickers.
type NewsProvider interface {
	Headlines(ctx context.Context, tickers []string, limit int) ([]types.NewsItem, error)
}
