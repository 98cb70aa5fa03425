package bitget

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// OrderRecorder receives every simulated or live order for audit.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, res types.ExecutionResult, orderType, size, price string)
}

// Trader implements portfolio access and order execution on the Bitget
// Spot API v2. In paper mode orders are recorded, never submitted.
type Trader struct {
	client   *Client
	paper    bool
	recorder OrderRecorder
	entries  EntrySource
}

var _ interfaces.Trader = (*Trader)(nil)

func NewTrader(client *Client, paper bool, recorder OrderRecorder, entries EntrySource) *Trader {
	return &Trader{client: client, paper: paper, recorder: recorder, entries: entries}
}

// assetRow is one row of /api/v2/spot/account/assets.
type assetRow struct {
	Coin      string          `json:"coin"`
	Available decimal.Decimal `json:"available"`
	Frozen    decimal.Decimal `json:"frozen"`
	Locked    decimal.Decimal `json:"locked"`
	UTime     string          `json:"uTime"`
}

// Portfolio fetches current holdings.
func (t *Trader) Portfolio(ctx context.Context) (types.Portfolio, error) {
	logger.Info(ctx, "Fetching portfolio", "paper_mode", t.paper)

	params := url.Values{"assetType": {"hold_only"}}
	var rows []assetRow
	if err := t.client.Get(ctx, "/api/v2/spot/account/assets", params, true, &rows); err != nil {
		return types.Portfolio{}, err
	}

	positions := make([]types.Position, 0, len(rows))
	for _, r := range rows {
		updated, _ := strconv.ParseInt(r.UTime, 10, 64)
		positions = append(positions, types.Position{
			Coin:      strings.ToUpper(r.Coin),
			Available: r.Available,
			Frozen:    r.Frozen,
			Locked:    r.Locked,
			UpdatedAt: updated,
		})
	}

	t.enrichPNL(ctx, positions)

	pf := types.Portfolio{Positions: positions, FetchedAt: time.Now()}
	logger.Info(ctx, "Portfolio fetched",
		"total_positions", pf.TotalPositions(),
		"usdt_balance", pf.USDTBalance().String())
	return pf, nil
}

// placeOrderRequest is the /api/v2/spot/trade/place-order payload.
type placeOrderRequest struct {
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrderType string `json:"orderType"`
	Size      string `json:"size"`
	ClientOid string `json:"clientOid"`
	Force     string `json:"force"`
	Price     string `json:"price,omitempty"`
}

type placeOrderResponse struct {
	OrderID   string `json:"orderId"`
	ClientOid string `json:"clientOid"`
}

// PlaceOrder submits one order. An exchange-side rejection is reported
// through the result, not as an error; only transport and auth failures
// return an error.
func (t *Trader) PlaceOrder(ctx context.Context, symbol, side, orderType, size, price string) (types.ExecutionResult, error) {
	clientOid := uuid.NewString()
	symbol = strings.ToUpper(symbol)
	side = strings.ToLower(side)
	orderType = strings.ToLower(orderType)

	logger.Info(ctx, "Placing order",
		"symbol", symbol, "side", side, "order_type", orderType,
		"size", size, "price", price, "paper_mode", t.paper)

	if t.paper {
		return t.paperOrder(ctx, symbol, side, orderType, size, price, clientOid), nil
	}

	req := placeOrderRequest{
		Symbol:    symbol,
		Side:      side,
		OrderType: orderType,
		Size:      size,
		ClientOid: clientOid,
		Force:     "gtc",
	}
	if price != "" && orderType == "limit" {
		req.Price = price
	}

	var resp placeOrderResponse
	if err := t.client.Post(ctx, "/api/v2/spot/trade/place-order", req, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			logger.ErrorWithErr(ctx, "Order rejected", err, "symbol", symbol)
			return types.ExecutionResult{
				ClientOrderID: clientOid,
				Symbol:        symbol,
				Side:          side,
				Status:        "failed",
				ErrorMessage:  apiErr.Error(),
			}, nil
		}
		return types.ExecutionResult{}, err
	}

	res := types.ExecutionResult{
		OrderID:       resp.OrderID,
		ClientOrderID: clientOid,
		Symbol:        symbol,
		Side:          side,
		Status:        "submitted",
		Success:       true,
	}
	if resp.ClientOid != "" {
		res.ClientOrderID = resp.ClientOid
	}
	if t.recorder != nil {
		t.recorder.RecordOrder(ctx, res, orderType, size, price)
	}
	logger.Trade(ctx, symbol, side, size, res.OrderID)
	return res, nil
}

// ExecuteDecision turns a manager decision into an order. Hold and
// non-actionable decisions never reach the exchange.
func (t *Trader) ExecuteDecision(ctx context.Context, d types.TradeDecision) (types.ExecutionResult, error) {
	logger.Info(ctx, "Executing decision",
		"symbol", d.Symbol, "action", string(d.Action), "quantity", d.Quantity)

	if d.Action == types.ActionHold {
		return types.ExecutionResult{
			Symbol:  d.Symbol,
			Side:    "hold",
			Status:  "no_action",
			Success: true,
		}, nil
	}
	if !d.Actionable() || d.Quantity == "" {
		logger.Warn(ctx, "Decision not actionable", "symbol", d.Symbol)
		return types.ExecutionResult{
			Symbol:       d.Symbol,
			Status:       "invalid",
			ErrorMessage: "decision missing required fields",
		}, nil
	}

	orderType := d.OrderType
	if orderType == "" {
		orderType = "market"
	}
	return t.PlaceOrder(ctx, d.Symbol, string(d.Action), orderType, d.Quantity, d.Price)
}

// CancelOrder cancels a live order. Always false in paper mode.
func (t *Trader) CancelOrder(ctx context.Context, symbol, orderID string) (bool, error) {
	if t.paper {
		return false, nil
	}
	payload := map[string]string{"symbol": strings.ToUpper(symbol), "orderId": orderID}
	if err := t.client.Post(ctx, "/api/v2/spot/trade/cancel-order", payload, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			logger.ErrorWithErr(ctx, "Cancel order failed", err, "order_id", orderID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *Trader) paperOrder(ctx context.Context, symbol, side, orderType, size, price, clientOid string) types.ExecutionResult {
	orderID := "paper_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	status := "live"
	if orderType == "market" {
		status = "filled"
	}

	res := types.ExecutionResult{
		OrderID:       orderID,
		ClientOrderID: clientOid,
		Symbol:        symbol,
		Side:          side,
		Status:        status,
		Success:       true,
		Paper:         true,
	}
	if t.recorder != nil {
		t.recorder.RecordOrder(ctx, res, orderType, size, price)
	}
	t.trackPaperFill(ctx, symbol, side, orderType, size, price)
	logger.Info(ctx, "Paper order placed", "order_id", orderID, "symbol", symbol, "side", side, "size", size)
	return res
}

// trackPaperFill feeds the simulated fill into the entry tracker.
// Market orders fill at the last traded price from the public feed.
func (t *Trader) trackPaperFill(ctx context.Context, symbol, side, orderType, size, price string) {
	if t.entries == nil {
		return
	}
	fillPrice := t.paperFillPrice(ctx, symbol, price)
	if fillPrice.IsZero() {
		return
	}
	qty, err := decimal.NewFromString(size)
	if err != nil || qty.IsZero() {
		return
	}
	// market buys size the order in quote currency
	if side == "buy" && orderType == "market" {
		qty = qty.Div(fillPrice)
	}
	t.entries.RecordFill(ctx, strings.TrimSuffix(symbol, "USDT"), side, qty, fillPrice)
}

func (t *Trader) paperFillPrice(ctx context.Context, symbol, price string) decimal.Decimal {
	if price != "" {
		if p, err := decimal.NewFromString(price); err == nil && !p.IsZero() {
			return p
		}
	}
	params := url.Values{"symbol": {symbol}}
	var tickers []types.TickerData
	if err := t.client.Get(ctx, "/api/v2/spot/market/tickers", params, false, &tickers); err != nil || len(tickers) == 0 {
		logger.Warn(ctx, "No fill price for paper order", "symbol", symbol)
		return decimal.Zero
	}
	p, err := decimal.NewFromString(tickers[0].LastPrice)
	if err != nil {
		return decimal.Zero
	}
	return p
}
