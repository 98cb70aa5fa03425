package universe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// maxMetricsLookups caps how many screened coins get a CoinGecko
// metrics lookup, to stay inside free-tier rate limits.
const maxMetricsLookups = 50

// Filters are the hard-filter thresholds and scoring ranges. All
// percentage values are in percent, market caps in USD.
type Filters struct {
	PumpDumpThreshold float64
	PriceChange24hMin float64
	PriceChange24hMax float64
	PriceChange7dMin  float64
	PriceChange7dMax  float64
	MarketCapMin      float64
	MarketCapMax      float64
}

// Screener scores exchange tickers against momentum, market-cap and
// volume criteria and returns the top candidates.
//
// Hard filters drop stablecoins and pump-and-dump candidates outright.
// Scoring: 24h change in the sweet spot +20 (bearish mirror +10), 7d
// change in range +15 (bearish mirror +8), market cap in range +20
// (below range +5), volume over $10M +10 or over $1M +5. Deductions:
// over 100% in 24h costs 10, a flat price on thin volume costs 15.
// Scores never go below zero.
type Screener struct {
	market      interfaces.Market
	fundamental interfaces.FundamentalSource
	filters     Filters
	initialPool int
	resultLimit int
}

func NewScreener(market interfaces.Market, fundamental interfaces.FundamentalSource, filters Filters, initialPool, resultLimit int) *Screener {
	if initialPool <= 0 {
		initialPool = 200
	}
	if resultLimit <= 0 {
		resultLimit = 20
	}
	return &Screener{
		market:      market,
		fundamental: fundamental,
		filters:     filters,
		initialPool: initialPool,
		resultLimit: resultLimit,
	}
}

// Screen fetches the initial pool by USDT volume, applies the hard
// filters, scores the rest and returns the top coins by score.
func (s *Screener) Screen(ctx context.Context) ([]types.ScreenedCoin, error) {
	logger.Info(ctx, "Starting coin screening", "initial_pool", s.initialPool)

	pool, err := s.market.TopCoinsByVolume(ctx, s.initialPool)
	if err != nil {
		return nil, fmt.Errorf("screening pool fetch: %w", err)
	}
	logger.Info(ctx, "Fetched initial pool", "count", len(pool))

	filtered := s.applyHardFilters(ctx, pool)
	logger.Info(ctx, "After hard filters", "remaining", len(filtered))
	if len(filtered) == 0 {
		logger.Warn(ctx, "All coins filtered out by hard filters")
		return nil, nil
	}

	metrics := s.fetchMetrics(ctx, filtered)

	scored := make([]types.ScreenedCoin, 0, len(filtered))
	for _, t := range filtered {
		m, ok := metrics[t.Ticker()]
		var mp *types.CoinMetrics
		if ok {
			mp = &m
		}
		scored = append(scored, s.scoreCoin(t, mp))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > s.resultLimit {
		scored = scored[:s.resultLimit]
	}

	top := make([]float64, 0, 5)
	for i := 0; i < len(scored) && i < 5; i++ {
		top = append(top, scored[i].Score)
	}
	logger.Info(ctx, "Screening complete", "returned", len(scored), "top_scores", top)

	return scored, nil
}

func (s *Screener) applyHardFilters(ctx context.Context, pool []types.TickerData) []types.TickerData {
	filtered := pool[:0:0]
	for _, t := range pool {
		ticker := t.Ticker()
		if IsStablecoin(ticker) {
			logger.Debug(ctx, "Filtered stablecoin", "ticker", ticker)
			continue
		}
		if math.Abs(t.Change24hPct()) > s.filters.PumpDumpThreshold {
			logger.Debug(ctx, "Filtered pump & dump", "ticker", ticker, "change_24h", t.Change24hPct())
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// fetchMetrics pulls CoinGecko fundamentals for the filtered coins.
// Screening continues without them on failure.
func (s *Screener) fetchMetrics(ctx context.Context, filtered []types.TickerData) map[string]types.CoinMetrics {
	if s.fundamental == nil {
		return nil
	}
	n := len(filtered)
	if n > maxMetricsLookups {
		n = maxMetricsLookups
	}
	tickers := make([]string, 0, n)
	for _, t := range filtered[:n] {
		tickers = append(tickers, t.Ticker())
	}
	metrics, err := s.fundamental.CoinMetrics(ctx, tickers)
	if err != nil {
		logger.Warn(ctx, "Screening without fundamental data", "error", err)
		return nil
	}
	logger.Info(ctx, "Fetched fundamental data for screening", "count", len(metrics))
	return metrics
}

func (s *Screener) scoreCoin(t types.TickerData, m *types.CoinMetrics) types.ScreenedCoin {
	score := 0.0
	var reasons, deductions []string

	change24h := t.Change24hPct()
	volume24h := t.USDTVolumeFloat()

	switch {
	case s.filters.PriceChange24hMin <= change24h && change24h <= s.filters.PriceChange24hMax:
		score += 20
		reasons = append(reasons, fmt.Sprintf("24h change %.1f%% in sweet spot", change24h))
	case s.filters.PriceChange24hMin <= -change24h && -change24h <= s.filters.PriceChange24hMax:
		score += 10
		reasons = append(reasons, fmt.Sprintf("24h change %.1f%% (bearish sweet spot)", change24h))
	}

	var change7d float64
	if m != nil {
		change7d = m.PriceChange7d
		switch {
		case s.filters.PriceChange7dMin <= change7d && change7d <= s.filters.PriceChange7dMax:
			score += 15
			reasons = append(reasons, fmt.Sprintf("7d change %.1f%% in range", change7d))
		case s.filters.PriceChange7dMin <= -change7d && -change7d <= s.filters.PriceChange7dMax:
			score += 8
			reasons = append(reasons, fmt.Sprintf("7d change %.1f%% (bearish range)", change7d))
		}

		if mcap := m.MarketCap; mcap > 0 {
			switch {
			case s.filters.MarketCapMin <= mcap && mcap <= s.filters.MarketCapMax:
				score += 20
				reasons = append(reasons, fmt.Sprintf("Market cap $%.1fM in range", mcap/1e6))
			case mcap < s.filters.MarketCapMin:
				score += 5
				reasons = append(reasons, fmt.Sprintf("Small cap $%.1fM (higher risk/reward)", mcap/1e6))
			}
		}
	}

	switch {
	case volume24h > 10_000_000:
		score += 10
		reasons = append(reasons, fmt.Sprintf("High volume $%.1fM", volume24h/1e6))
	case volume24h > 1_000_000:
		score += 5
		reasons = append(reasons, fmt.Sprintf("Moderate volume $%.1fM", volume24h/1e6))
	}

	if math.Abs(change24h) > 100 {
		score -= 10
		deductions = append(deductions, fmt.Sprintf("High volatility %.1f%%", change24h))
	}
	if math.Abs(change24h) < 2 && volume24h < 500_000 {
		score -= 15
		deductions = append(deductions, "Flat price with low volume")
	}

	price, _ := strconv.ParseFloat(t.LastPrice, 64)

	var marketCap float64
	if m != nil {
		marketCap = m.MarketCap
	}

	return types.ScreenedCoin{
		Ticker:       t.Ticker(),
		Symbol:       t.Symbol,
		Score:        math.Max(0, score),
		CurrentPrice: price,
		Change24h:    change24h,
		Change7d:     change7d,
		Volume24h:    volume24h,
		MarketCap:    marketCap,
		Reasons:      reasons,
		Deductions:   deductions,
		ScreenedAt:   time.Now(),
	}
}
