package bitget

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// EntrySource tracks simulated fills so paper portfolios still carry
// cost basis. Live portfolios get theirs from the fills endpoint.
type EntrySource interface {
	RecordFill(ctx context.Context, coin, side string, qty, price decimal.Decimal)
	AvgEntry(coin string) (decimal.Decimal, bool)
}

// fillRow is one row of /api/v2/spot/trade/fills.
type fillRow struct {
	TradeID  string          `json:"tradeId"`
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	PriceAvg decimal.Decimal `json:"priceAvg"`
	Size     decimal.Decimal `json:"size"`
}

// avgEntryFromFills computes the weighted-average buy price from the
// account's recent fills. ok is false without any buy fills.
func (t *Trader) avgEntryFromFills(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	params := url.Values{"symbol": {symbol}, "limit": {"100"}}
	var rows []fillRow
	if err := t.client.Get(ctx, "/api/v2/spot/trade/fills", params, true, &rows); err != nil {
		logger.Warn(ctx, "Could not fetch trade fills", "symbol", symbol, "error", err)
		return decimal.Zero, false
	}

	cost, qty := decimal.Zero, decimal.Zero
	for _, r := range rows {
		if !strings.EqualFold(r.Side, "buy") {
			continue
		}
		cost = cost.Add(r.PriceAvg.Mul(r.Size))
		qty = qty.Add(r.Size)
	}
	if qty.IsZero() {
		return decimal.Zero, false
	}
	return cost.Div(qty), true
}

// enrichPNL fills cost-basis PNL on positions: current prices from the
// public ticker feed, entry prices from recent fills, or from the
// tracked paper positions in paper mode. Best effort throughout; a
// position without a known entry stays bare.
func (t *Trader) enrichPNL(ctx context.Context, positions []types.Position) {
	holdings := false
	for _, p := range positions {
		if !strings.EqualFold(p.Coin, "USDT") && p.TotalBalance().IsPositive() {
			holdings = true
			break
		}
	}
	if !holdings {
		return
	}

	var tickers []types.TickerData
	if err := t.client.Get(ctx, "/api/v2/spot/market/tickers", nil, false, &tickers); err != nil {
		logger.Warn(ctx, "Could not fetch tickers for PNL enrichment", "error", err)
		return
	}
	prices := make(map[string]decimal.Decimal, len(tickers))
	for _, tk := range tickers {
		if p, err := decimal.NewFromString(tk.LastPrice); err == nil {
			prices[strings.ToUpper(tk.Symbol)] = p
		}
	}

	for i := range positions {
		p := &positions[i]
		if strings.EqualFold(p.Coin, "USDT") || !p.TotalBalance().IsPositive() {
			continue
		}
		last, ok := prices[p.Coin+"USDT"]
		if !ok || last.IsZero() {
			continue
		}
		p.CurrentPrice = last

		var avg decimal.Decimal
		var known bool
		if t.paper {
			if t.entries != nil {
				avg, known = t.entries.AvgEntry(p.Coin)
			}
		} else {
			avg, known = t.avgEntryFromFills(ctx, p.Coin+"USDT")
		}
		if !known || avg.IsZero() {
			continue
		}
		p.AvgEntryPrice = avg
		p.UnrealizedPNL = last.Sub(avg).Mul(p.TotalBalance())
		p.UnrealizedPNLPct = last.Sub(avg).Div(avg).Mul(decimal.NewFromInt(100))
	}
}
