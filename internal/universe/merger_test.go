package universe

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/types"
)

func pos(coin string, available float64) types.Position {
	return types.Position{Coin: coin, Available: decimal.NewFromFloat(available)}
}

func rankedRefs(tickers ...string) []types.CoinRef {
	refs := make([]types.CoinRef, 0, len(tickers))
	for _, t := range tickers {
		refs = append(refs, types.NewCoinRef(t, types.SourceRankedUniverse))
	}
	return refs
}

func TestMergeRetagsHeldRankedCoin(t *testing.T) {
	positions := []types.Position{pos("BTC", 10)}
	ranked := rankedRefs("ETH", "BTC", "SOL")

	out := Merge(positions, ranked, decimal.NewFromInt(1))

	want := []struct {
		ticker string
		source types.Source
	}{
		{"ETH", types.SourceRankedUniverse},
		{"BTC", types.SourcePortfolio},
		{"SOL", types.SourceRankedUniverse},
	}
	if len(out) != len(want) {
		t.Fatalf("expected %d coins, got %d: %v", len(want), len(out), out)
	}
	for i, w := range want {
		if out[i].Ticker != w.ticker || out[i].Source != w.source {
			t.Errorf("position %d: expected %s/%s, got %s/%s",
				i, w.ticker, w.source, out[i].Ticker, out[i].Source)
		}
	}
}

func TestMergeAppendsPortfolioOnlyCoins(t *testing.T) {
	positions := []types.Position{pos("DOGE", 500), pos("BTC", 2)}
	ranked := rankedRefs("ETH", "BTC")

	out := Merge(positions, ranked, decimal.NewFromInt(1))

	if len(out) != 3 {
		t.Fatalf("expected 3 coins, got %d: %v", len(out), out)
	}
	last := out[2]
	if last.Ticker != "DOGE" || last.Source != types.SourcePortfolio {
		t.Errorf("expected DOGE appended as portfolio, got %s/%s", last.Ticker, last.Source)
	}
}

func TestMergeDustPositionStaysRankedUniverse(t *testing.T) {
	// Below min balance: the coin is not a qualifying position, so its
	// ranked entry keeps the ranked_universe tag.
	positions := []types.Position{pos("SOL", 0.5)}
	ranked := rankedRefs("SOL")

	out := Merge(positions, ranked, decimal.NewFromInt(1))
	if len(out) != 1 {
		t.Fatalf("expected 1 coin, got %d", len(out))
	}
	if out[0].Source != types.SourceRankedUniverse {
		t.Errorf("dust position should not retag, got %s", out[0].Source)
	}
}

func TestMergeExcludesStablecoinPositions(t *testing.T) {
	positions := []types.Position{pos("USDT", 1000), pos("USDC", 500), pos("ETH", 3)}

	out := Merge(positions, nil, decimal.NewFromInt(1))
	if len(out) != 1 {
		t.Fatalf("expected only ETH, got %v", out)
	}
	if out[0].Ticker != "ETH" {
		t.Errorf("expected ETH, got %s", out[0].Ticker)
	}
}

func TestMergeCaseInsensitiveDedupe(t *testing.T) {
	positions := []types.Position{pos("btc", 5), pos("BTC", 5)}
	ranked := []types.CoinRef{
		{Ticker: "eth", Source: types.SourceRankedUniverse},
		{Ticker: "ETH", Source: types.SourceRankedUniverse},
	}

	out := Merge(positions, ranked, decimal.NewFromInt(1))
	if len(out) != 2 {
		t.Fatalf("expected ETH and BTC once each, got %v", out)
	}
	if out[0].Ticker != "ETH" || out[1].Ticker != "BTC" {
		t.Errorf("unexpected order: %v", out)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	positions := []types.Position{pos("BTC", 10), pos("ADA", 200)}
	ranked := rankedRefs("ETH", "BTC", "SOL")
	min := decimal.NewFromInt(1)

	first := Merge(positions, ranked, min)
	second := Merge(positions, ranked, min)

	if len(first) != len(second) {
		t.Fatalf("merge not deterministic: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestIsStablecoin(t *testing.T) {
	if !IsStablecoin("usdt") {
		t.Error("usdt should be a stablecoin regardless of case")
	}
	if IsStablecoin("BTC") {
		t.Error("BTC is not a stablecoin")
	}
}
