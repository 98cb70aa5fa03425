package universe

import (
	"context"
	"errors"
	"testing"

	"github.com/vnnyx/lumina-capital/internal/types"
)

type fakeMarket struct {
	pool []types.TickerData
	err  error
}

func (f *fakeMarket) TopCoinsByVolume(_ context.Context, limit int) ([]types.TickerData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pool) > limit {
		return f.pool[:limit], nil
	}
	return f.pool, nil
}

func (f *fakeMarket) Ticker(context.Context, string) (types.TickerData, error) {
	return types.TickerData{}, errors.New("not implemented")
}

func (f *fakeMarket) MarketSnapshot(context.Context, string, string, int) (types.MarketData, error) {
	return types.MarketData{}, errors.New("not implemented")
}

type fakeFundamentals struct {
	metrics map[string]types.CoinMetrics
	err     error
}

func (f *fakeFundamentals) FearGreed(context.Context) (*types.FearGreed, error) { return nil, nil }

func (f *fakeFundamentals) CoinMetrics(context.Context, []string) (map[string]types.CoinMetrics, error) {
	return f.metrics, f.err
}

func (f *fakeFundamentals) News(context.Context, []string, int) ([]types.NewsItem, error) {
	return nil, nil
}

func (f *fakeFundamentals) All(context.Context, []string) (types.FundamentalData, error) {
	return types.FundamentalData{CoinMetrics: f.metrics}, f.err
}

func ticker(symbol, change24h, usdtVolume string) types.TickerData {
	return types.TickerData{Symbol: symbol, Change24h: change24h, USDTVolume: usdtVolume, LastPrice: "1.0"}
}

func defaultFilters() Filters {
	return Filters{
		PumpDumpThreshold: 200,
		PriceChange24hMin: 15,
		PriceChange24hMax: 50,
		PriceChange7dMin:  30,
		PriceChange7dMax:  100,
		MarketCapMin:      10_000_000,
		MarketCapMax:      500_000_000,
	}
}

func TestScreenDropsStablecoinsAndPumpDumps(t *testing.T) {
	market := &fakeMarket{pool: []types.TickerData{
		ticker("USDTUSDT", "0.001", "90000000"),
		ticker("USDCUSDT", "0.0", "50000000"),
		ticker("MOONUSDT", "2.50", "20000000"), // +250%, pump & dump
		ticker("OKUSDT", "0.20", "15000000"),
	}}

	s := NewScreener(market, &fakeFundamentals{}, defaultFilters(), 200, 20)
	out, err := s.Screen(context.Background())
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only OK to survive, got %v", out)
	}
	if out[0].Ticker != "OK" {
		t.Errorf("expected OK, got %s", out[0].Ticker)
	}
}

func TestScoreCoinSweetSpot(t *testing.T) {
	s := NewScreener(&fakeMarket{}, nil, defaultFilters(), 200, 20)

	// +25% in 24h (+20), +50% 7d (+15), $100M cap (+20), $20M volume (+10).
	m := &types.CoinMetrics{PriceChange7d: 50, MarketCap: 100_000_000}
	c := s.scoreCoin(ticker("GEMUSDT", "0.25", "20000000"), m)
	if c.Score != 65 {
		t.Errorf("expected score 65, got %.1f (%v)", c.Score, c.Reasons)
	}
}

func TestScoreCoinBearishMirrors(t *testing.T) {
	s := NewScreener(&fakeMarket{}, nil, defaultFilters(), 200, 20)

	// -25% in 24h (+10), -50% 7d (+8), small cap (+5), $2M volume (+5).
	m := &types.CoinMetrics{PriceChange7d: -50, MarketCap: 5_000_000}
	c := s.scoreCoin(ticker("DIPUSDT", "-0.25", "2000000"), m)
	if c.Score != 28 {
		t.Errorf("expected score 28, got %.1f (%v)", c.Score, c.Reasons)
	}
}

func TestScoreCoinDeductions(t *testing.T) {
	s := NewScreener(&fakeMarket{}, nil, defaultFilters(), 200, 20)

	// +150% deducts 10 for volatility; $20M volume still adds 10.
	c := s.scoreCoin(ticker("WILDUSDT", "1.50", "20000000"), nil)
	if c.Score != 0 {
		t.Errorf("expected volatile coin score 0, got %.1f (%v / %v)", c.Score, c.Reasons, c.Deductions)
	}
	if len(c.Deductions) != 1 {
		t.Errorf("expected 1 deduction, got %v", c.Deductions)
	}

	// Flat price on thin volume never goes below zero.
	c = s.scoreCoin(ticker("DEADUSDT", "0.01", "100000"), nil)
	if c.Score != 0 {
		t.Errorf("score must floor at 0, got %.1f", c.Score)
	}
}

func TestScreenSurvivesMetricsFailure(t *testing.T) {
	market := &fakeMarket{pool: []types.TickerData{
		ticker("AUSDT", "0.20", "15000000"),
		ticker("BUSDT", "0.05", "12000000"),
	}}
	fund := &fakeFundamentals{err: errors.New("coingecko down")}

	s := NewScreener(market, fund, defaultFilters(), 200, 20)
	out, err := s.Screen(context.Background())
	if err != nil {
		t.Fatalf("screen should degrade without metrics: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(out))
	}
	// A gets +20 (sweet spot) +10 (volume); B only +10.
	if out[0].Ticker != "A" || out[0].Score <= out[1].Score {
		t.Errorf("expected A ranked first: %v", out)
	}
}

func TestScreenLimitsResults(t *testing.T) {
	pool := []types.TickerData{
		ticker("AUSDT", "0.20", "30000000"),
		ticker("BUSDT", "0.25", "20000000"),
		ticker("CUSDT", "0.30", "15000000"),
	}
	s := NewScreener(&fakeMarket{pool: pool}, &fakeFundamentals{}, defaultFilters(), 200, 2)
	out, err := s.Screen(context.Background())
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected result limit 2, got %d", len(out))
	}
}

func TestScreenPoolFetchErrorPropagates(t *testing.T) {
	s := NewScreener(&fakeMarket{err: errors.New("exchange down")}, nil, defaultFilters(), 200, 20)
	if _, err := s.Screen(context.Background()); err == nil {
		t.Fatal("expected pool fetch error")
	}
}
