package universe

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// Stablecoins carry no trading alpha and never enter the universe.
var Stablecoins = map[string]struct{}{
	"USDT": {}, "USDC": {}, "DAI": {}, "TUSD": {}, "FDUSD": {}, "BUSD": {},
	"USDP": {}, "GUSD": {}, "FRAX": {}, "LUSD": {}, "SUSD": {}, "USDD": {},
	"CUSD": {}, "USTC": {}, "PYUSD": {}, "EURC": {},
}

// IsStablecoin reports whether the ticker is a known stablecoin.
func IsStablecoin(ticker string) bool {
	_, ok := Stablecoins[strings.ToUpper(ticker)]
	return ok
}

// Merge builds the analysis universe from portfolio positions and the
// ranked screening output.
//
// Positions are filtered to total balance >= minBalance, stablecoins
// excluded. The union is keyed by ticker, case-insensitive. Ranked
// entries keep their order; a ranked coin that is also a qualifying
// position is re-tagged SourcePortfolio in place. Qualifying positions
// absent from the ranked list are appended afterwards in position
// order. Output is deterministic and duplicate-free.
func Merge(positions []types.Position, ranked []types.CoinRef, minBalance decimal.Decimal) []types.CoinRef {
	held := make(map[string]struct{})
	var heldOrder []string
	for _, p := range positions {
		ticker := strings.ToUpper(p.Coin)
		if IsStablecoin(ticker) {
			continue
		}
		if p.TotalBalance().LessThan(minBalance) {
			continue
		}
		if _, ok := held[ticker]; ok {
			continue
		}
		held[ticker] = struct{}{}
		heldOrder = append(heldOrder, ticker)
	}

	out := make([]types.CoinRef, 0, len(ranked)+len(heldOrder))
	seen := make(map[string]struct{}, len(ranked))
	for _, ref := range ranked {
		ticker := strings.ToUpper(ref.Ticker)
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}

		ref.Ticker = ticker
		ref.Source = types.SourceRankedUniverse
		if _, ok := held[ticker]; ok {
			ref.Source = types.SourcePortfolio
		}
		out = append(out, ref)
	}

	for _, ticker := range heldOrder {
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}
		out = append(out, types.NewCoinRef(ticker, types.SourcePortfolio))
	}

	return out
}

// RankedRefs converts screening output into ranked-universe coin refs,
// preserving score order.
func RankedRefs(coins []types.ScreenedCoin) []types.CoinRef {
	refs := make([]types.CoinRef, 0, len(coins))
	for _, c := range coins {
		refs = append(refs, types.NewCoinRef(c.Ticker, types.SourceRankedUniverse))
	}
	return refs
}
