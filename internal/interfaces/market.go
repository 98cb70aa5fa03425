package interfaces

import (
	"context"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// Market provides read-only spot market data from the exchange.
type Market interface {
	// TopCoinsByVolume returns up to limit tickers sorted by 24h USDT volume.
	TopCoinsByVolume(ctx context.Context, limit int) ([]types.TickerData, error)
	// Ticker returns the 24h snapshot for one trading pair.
	Ticker(ctx context.Context, symbol string) (types.TickerData, error)
	// MarketSnapshot returns the ticker plus recent candles for one pair.
	MarketSnapshot(ctx context.Context, symbol, granularity string, limit int) (types.MarketData, error)
}
