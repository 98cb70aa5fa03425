package bitget

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/resilience"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// MarketData serves spot market data from the Bitget public endpoints.
type MarketData struct {
	client *Client
}

var _ interfaces.Market = (*MarketData)(nil)

func NewMarketData(client *Client) *MarketData {
	return &MarketData{client: client}
}

// AllTickers fetches the 24h ticker for every spot pair.
func (m *MarketData) AllTickers(ctx context.Context) ([]types.TickerData, error) {
	var tickers []types.TickerData
	if err := m.client.Get(ctx, "/api/v2/spot/market/tickers", nil, false, &tickers); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Fetched tickers", "count", len(tickers))
	return tickers, nil
}

// Ticker fetches the 24h snapshot for one trading pair.
func (m *MarketData) Ticker(ctx context.Context, symbol string) (types.TickerData, error) {
	params := url.Values{"symbol": {strings.ToUpper(symbol)}}
	var tickers []types.TickerData
	if err := m.client.Get(ctx, "/api/v2/spot/market/tickers", params, false, &tickers); err != nil {
		return types.TickerData{}, err
	}
	if len(tickers) == 0 {
		return types.TickerData{}, resilience.Permanentf("no ticker for symbol %s", symbol)
	}
	return tickers[0], nil
}

// TopCoinsByVolume returns USDT pairs sorted by quote volume descending.
func (m *MarketData) TopCoinsByVolume(ctx context.Context, limit int) ([]types.TickerData, error) {
	all, err := m.AllTickers(ctx)
	if err != nil {
		return nil, err
	}

	usdtPairs := all[:0:0]
	for _, t := range all {
		if strings.HasSuffix(t.Symbol, "USDT") {
			usdtPairs = append(usdtPairs, t)
		}
	}
	sort.SliceStable(usdtPairs, func(i, j int) bool {
		return usdtPairs[i].USDTVolumeFloat() > usdtPairs[j].USDTVolumeFloat()
	})
	if limit > 0 && len(usdtPairs) > limit {
		usdtPairs = usdtPairs[:limit]
	}

	logger.Info(ctx, "Top coins by volume", "count", len(usdtPairs))
	return usdtPairs, nil
}

// Candles fetches OHLCV bars, oldest first. Bitget returns each bar as
// a string array [ts, open, high, low, close, baseVol, usdtVol, quoteVol].
func (m *MarketData) Candles(ctx context.Context, symbol, granularity string, limit int) ([]types.Candle, error) {
	params := url.Values{
		"symbol":      {strings.ToUpper(symbol)},
		"granularity": {granularity},
		"limit":       {strconv.Itoa(limit)},
	}
	var rows [][]string
	if err := m.client.Get(ctx, "/api/v2/spot/market/candles", params, false, &rows); err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		c, err := parseCandle(row)
		if err != nil {
			return nil, fmt.Errorf("bitget candles %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}

// MarketSnapshot bundles the ticker with recent candles for one pair.
func (m *MarketData) MarketSnapshot(ctx context.Context, symbol, granularity string, limit int) (types.MarketData, error) {
	ticker, err := m.Ticker(ctx, symbol)
	if err != nil {
		return types.MarketData{}, err
	}
	candles, err := m.Candles(ctx, symbol, granularity, limit)
	if err != nil {
		return types.MarketData{}, err
	}
	return types.MarketData{
		Ticker:      ticker,
		Candles:     candles,
		Granularity: granularity,
		FetchedAt:   time.Now(),
	}, nil
}

func parseCandle(row []string) (types.Candle, error) {
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return types.Candle{}, err
	}
	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return types.Candle{}, err
		}
		vals[i-1] = v
	}
	return types.Candle{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
