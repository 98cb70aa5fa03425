package exchangeobs

import (
	"context"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// observableMarket wraps a Market with observability (logging & tracing)
type observableMarket struct {
	market interfaces.Market
}

// Compile-time interface check
var _ interfaces.Market = (*observableMarket)(nil)

// WrapMarket wraps a market data source with observability middleware
func WrapMarket(market interfaces.Market) interfaces.Market {
	return &observableMarket{market: market}
}

func (om *observableMarket) TopCoinsByVolume(ctx context.Context, limit int) ([]types.TickerData, error) {
	ctx, span := trace.StartSpan(ctx, "market.TopCoinsByVolume")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching top coins by volume", "limit", limit)

	tickers, err := om.market.TopCoinsByVolume(ctx, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch top coins", err, "limit", limit)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Top coins fetched successfully", "count", len(tickers))
	return tickers, nil
}

func (om *observableMarket) Ticker(ctx context.Context, symbol string) (types.TickerData, error) {
	ctx, span := trace.StartSpan(ctx, "market.Ticker")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching ticker", "symbol", symbol)

	ticker, err := om.market.Ticker(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch ticker", err, "symbol", symbol)
		return types.TickerData{}, err
	}

	logger.DebugSkip(ctx, 1, "Ticker fetched successfully", "symbol", symbol, "last_price", ticker.LastPrice)
	return ticker, nil
}

func (om *observableMarket) MarketSnapshot(ctx context.Context, symbol, granularity string, limit int) (types.MarketData, error) {
	ctx, span := trace.StartSpan(ctx, "market.MarketSnapshot")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching market snapshot", "symbol", symbol, "granularity", granularity, "limit", limit)

	md, err := om.market.MarketSnapshot(ctx, symbol, granularity, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch market snapshot", err, "symbol", symbol)
		return types.MarketData{}, err
	}

	logger.DebugSkip(ctx, 1, "Market snapshot fetched successfully", "symbol", symbol, "candles", len(md.Candles))
	return md, nil
}

// observableTrader wraps a Trader with observability (logging & tracing)
type observableTrader struct {
	trader interfaces.Trader
}

// Compile-time interface check
var _ interfaces.Trader = (*observableTrader)(nil)

// WrapTrader wraps a trader with observability middleware
func WrapTrader(trader interfaces.Trader) interfaces.Trader {
	return &observableTrader{trader: trader}
}

func (ot *observableTrader) Portfolio(ctx context.Context) (types.Portfolio, error) {
	ctx, span := trace.StartSpan(ctx, "trader.Portfolio")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching portfolio")

	pf, err := ot.trader.Portfolio(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch portfolio", err)
		return types.Portfolio{}, err
	}

	logger.DebugSkip(ctx, 1, "Portfolio fetched successfully",
		"positions", pf.TotalPositions(),
		"usdt_balance", pf.USDTBalance().String(),
	)
	return pf, nil
}

func (ot *observableTrader) PlaceOrder(ctx context.Context, symbol, side, orderType, size, price string) (types.ExecutionResult, error) {
	ctx, span := trace.StartSpan(ctx, "trader.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", symbol,
		"side", side,
		"order_type", orderType,
		"size", size,
	)

	res, err := ot.trader.PlaceOrder(ctx, symbol, side, orderType, size, price)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", symbol,
			"side", side,
			"size", size,
		)
		return types.ExecutionResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"symbol", symbol,
		"order_id", res.OrderID,
		"status", res.Status,
		"success", res.Success,
	)
	return res, nil
}

func (ot *observableTrader) CancelOrder(ctx context.Context, symbol, orderID string) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "trader.CancelOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Cancelling order", "symbol", symbol, "order_id", orderID)

	ok, err := ot.trader.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel order", err, "order_id", orderID)
		return false, err
	}

	logger.InfoSkip(ctx, 1, "Cancel order finished", "order_id", orderID, "cancelled", ok)
	return ok, err
}

func (ot *observableTrader) ExecuteDecision(ctx context.Context, d types.TradeDecision) (types.ExecutionResult, error) {
	ctx, span := trace.StartSpan(ctx, "trader.ExecuteDecision")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Executing decision",
		"symbol", d.Symbol,
		"action", string(d.Action),
		"confidence", d.Confidence,
	)

	res, err := ot.trader.ExecuteDecision(ctx, d)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to execute decision", err, "symbol", d.Symbol)
		return types.ExecutionResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Decision executed",
		"symbol", d.Symbol,
		"status", res.Status,
		"success", res.Success,
	)
	return res, nil
}
