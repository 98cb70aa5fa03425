package fundamental

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vnnyx/lumina-capital/internal/logger"
)

// ErrUnresolvedTicker marks a ticker with no canonical CoinGecko ID.
// Callers decide whether to skip the coin or abort the cycle.
var ErrUnresolvedTicker = errors.New("unresolved ticker")

// Searcher is the lookup call the resolver falls back to for unknown
// tickers. Satisfied by CoinGeckoClient.
type Searcher interface {
	Search(ctx context.Context, query string) ([]searchHit, error)
}

// Resolver maps ticker symbols to canonical CoinGecko IDs. Known
// tickers resolve from a static table; unknown ones issue one search
// call per cycle, with both hits and misses memoized so repeated
// lookups never search twice.
type Resolver struct {
	searcher Searcher

	mu   sync.Mutex
	memo map[string]string // ticker -> id, "" = known miss
}

func NewResolver(searcher Searcher) *Resolver {
	return &Resolver{
		searcher: searcher,
		memo:     make(map[string]string),
	}
}

// Resolve returns the canonical ID for ticker. A search result only
// counts when its symbol matches the ticker exactly (case-insensitive);
// anything weaker is treated as no match and yields ErrUnresolvedTicker.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", fmt.Errorf("%w: empty ticker", ErrUnresolvedTicker)
	}

	if id, ok := knownTickers[t]; ok {
		return id, nil
	}

	r.mu.Lock()
	id, seen := r.memo[t]
	r.mu.Unlock()
	if seen {
		if id == "" {
			return "", fmt.Errorf("%w: %s", ErrUnresolvedTicker, t)
		}
		return id, nil
	}

	hits, err := r.searcher.Search(ctx, t)
	if err != nil {
		// Search failures are not memoized so a later call may retry.
		return "", fmt.Errorf("search %s: %w", t, err)
	}

	for _, h := range hits {
		if strings.EqualFold(h.Symbol, t) {
			r.mu.Lock()
			r.memo[t] = h.ID
			r.mu.Unlock()
			logger.Info(ctx, "Discovered canonical ID for ticker", "ticker", t, "id", h.ID)
			return h.ID, nil
		}
	}

	r.mu.Lock()
	r.memo[t] = ""
	r.mu.Unlock()
	logger.Debug(ctx, "No canonical ID match for ticker", "ticker", t)
	return "", fmt.Errorf("%w: %s", ErrUnresolvedTicker, t)
}
