package interfaces

import (
	"context"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// Trader provides portfolio access and order execution.
type Trader interface {
	Portfolio(ctx context.Context) (types.Portfolio, error)
	PlaceOrder(ctx context.Context, symbol, side, orderType, size, price string) (types.ExecutionResult, error)
	ExecuteDecision(ctx context.Context, d types.TradeDecision) (types.ExecutionResult, error)
	// CancelOrder withdraws a resting order. A rejection reads as
	// false with a nil error; only transport failures return an error.
	CancelOrder(ctx context.Context, symbol, orderID string) (bool, error)
}
