package fundamental

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// TTLs configures how long each fundamental source stays fresh.
type TTLs struct {
	FearGreed   time.Duration
	Global      time.Duration
	CoinMetrics time.Duration
	News        time.Duration
}

// DefaultTTLs match the update cadence of the upstream sources: the
// index refreshes every few hours, market data drifts in minutes, news
// goes stale fastest.
func DefaultTTLs() TTLs {
	return TTLs{
		FearGreed:   time.Hour,
		Global:      time.Hour,
		CoinMetrics: 30 * time.Minute,
		News:        15 * time.Minute,
	}
}

// Service aggregates fundamental data from Alternative.me and CoinGecko
// behind the on-disk TTL cache. Every source degrades independently: a
// failed fetch for one never blocks the others.
type Service struct {
	cache     *Cache
	coingecko *CoinGeckoClient
	altme     *AlternativeMeClient
	resolver  *Resolver
	news      interfaces.NewsProvider
	ttls      TTLs
}

var _ interfaces.FundamentalSource = (*Service)(nil)

func NewService(cache *Cache, cg *CoinGeckoClient, am *AlternativeMeClient, resolver *Resolver, news interfaces.NewsProvider, ttls TTLs) *Service {
	if news == nil {
		news = NoNews{}
	}
	return &Service{
		cache:     cache,
		coingecko: cg,
		altme:     am,
		resolver:  resolver,
		news:      news,
		ttls:      ttls,
	}
}

// Resolver exposes the ticker resolver for callers that need canonical
// IDs directly.
func (s *Service) Resolver() *Resolver { return s.resolver }

// FearGreed returns the current index, cached for the configured TTL.
func (s *Service) FearGreed(ctx context.Context) (*types.FearGreed, error) {
	raw, err := s.cache.GetOrFetch(ctx, "fear_greed", s.ttls.FearGreed, func(ctx context.Context) (json.RawMessage, error) {
		logger.Info(ctx, "Fetching Fear & Greed Index")
		fg, err := s.altme.FearGreed(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fg)
	})
	if err != nil {
		return nil, err
	}
	var fg types.FearGreed
	if err := json.Unmarshal(raw, &fg); err != nil {
		return nil, err
	}
	return &fg, nil
}

// FearGreedTrend classifies the week-over-week drift of the index as
// improving, deteriorating or stable.
func (s *Service) FearGreedTrend(ctx context.Context) (string, error) {
	raw, err := s.cache.GetOrFetch(ctx, "fear_greed_history", s.ttls.FearGreed, func(ctx context.Context) (json.RawMessage, error) {
		logger.Info(ctx, "Fetching Fear & Greed history")
		rows, err := s.altme.Historical(ctx, 7)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		return "", err
	}
	var rows []types.FearGreed
	if err := json.Unmarshal(raw, &rows); err != nil {
		return "", err
	}
	if len(rows) < 2 {
		return "stable", nil
	}
	// rows arrive newest first
	switch diff := rows[0].Value - rows[len(rows)-1].Value; {
	case diff >= 5:
		return "improving", nil
	case diff <= -5:
		return "deteriorating", nil
	default:
		return "stable", nil
	}
}

// GlobalMarket returns market-wide stats, cached for the global TTL.
func (s *Service) GlobalMarket(ctx context.Context) (*types.GlobalMarket, error) {
	raw, err := s.cache.GetOrFetch(ctx, "global_market", s.ttls.Global, func(ctx context.Context) (json.RawMessage, error) {
		logger.Info(ctx, "Fetching global market stats")
		g, err := s.coingecko.Global(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(g)
	})
	if err != nil {
		return nil, err
	}
	var g types.GlobalMarket
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CoinMetrics returns fundamental metrics per ticker. Cached tickers
// are served from disk; the rest are resolved to canonical IDs and
// fetched in one batched request. Unresolvable tickers are skipped.
func (s *Service) CoinMetrics(ctx context.Context, tickers []string) (map[string]types.CoinMetrics, error) {
	results := make(map[string]types.CoinMetrics)
	var toFetch []string

	for _, t := range tickers {
		key := metricsKey(t)
		if raw, ok := s.cache.Get(key); ok {
			var m types.CoinMetrics
			if err := json.Unmarshal(raw, &m); err == nil {
				results[strings.ToUpper(t)] = m
				continue
			}
		}
		toFetch = append(toFetch, strings.ToUpper(t))
	}

	if len(toFetch) == 0 {
		return results, nil
	}

	idToTicker := make(map[string]string, len(toFetch))
	var ids []string
	for _, t := range toFetch {
		id, err := s.resolver.Resolve(ctx, t)
		if err != nil {
			if errors.Is(err, ErrUnresolvedTicker) {
				logger.Debug(ctx, "Skipping unresolvable ticker", "ticker", t)
			} else {
				logger.Warn(ctx, "Ticker resolution failed", "ticker", t, "error", err)
			}
			continue
		}
		idToTicker[id] = t
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return results, nil
	}

	logger.Info(ctx, "Fetching coin metrics", "tickers", len(ids))
	rows, err := s.coingecko.Markets(ctx, ids)
	if err != nil {
		if len(results) > 0 {
			logger.Warn(ctx, "Coin metrics fetch failed, returning cached subset", "error", err)
			return results, nil
		}
		return nil, err
	}

	now := time.Now()
	for _, row := range rows {
		ticker, ok := idToTicker[row.ID]
		if !ok {
			continue
		}
		m := types.CoinMetrics{
			Ticker:              ticker,
			MarketCap:           row.MarketCap,
			MarketCapRank:       row.MarketCapRank,
			FullyDilutedVal:     row.FullyDilutedVal,
			TotalVolume:         row.TotalVolume,
			CirculatingSupply:   row.CirculatingSupply,
			TotalSupply:         row.TotalSupply,
			MaxSupply:           row.MaxSupply,
			ATH:                 row.ATH,
			ATHChangePercentage: row.ATHChangePercentage,
			ATL:                 row.ATL,
			ATLChangePercentage: row.ATLChangePercentage,
			PriceChange7d:       row.PriceChange7d,
			PriceChange30d:      row.PriceChange30d,
			LastUpdated:         now,
		}
		results[ticker] = m

		if raw, err := json.Marshal(m); err == nil {
			if perr := s.cache.Put(metricsKey(ticker), raw, s.ttls.CoinMetrics); perr != nil {
				logger.Warn(ctx, "Could not cache coin metrics", "ticker", ticker, "error", perr)
			}
		}
	}

	return results, nil
}

// News returns recent headlines for the tickers, cached briefly.
func (s *Service) News(ctx context.Context, tickers []string, limit int) ([]types.NewsItem, error) {
	raw, err := s.cache.GetOrFetch(ctx, "news", s.ttls.News, func(ctx context.Context) (json.RawMessage, error) {
		items, err := s.news.Headlines(ctx, tickers, limit)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []types.NewsItem{}
		}
		return json.Marshal(items)
	})
	if err != nil {
		return nil, err
	}
	var items []types.NewsItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// All fetches every fundamental source, tolerating per-source failure.
func (s *Service) All(ctx context.Context, tickers []string) (types.FundamentalData, error) {
	data := types.FundamentalData{
		CoinMetrics: map[string]types.CoinMetrics{},
		FetchedAt:   time.Now(),
	}

	fg, err := s.FearGreed(ctx)
	if err != nil {
		logger.Warn(ctx, "Fear & Greed unavailable", "error", err)
	} else {
		data.FearGreed = fg
		if trend, terr := s.FearGreedTrend(ctx); terr != nil {
			logger.Warn(ctx, "Fear & Greed history unavailable", "error", terr)
		} else {
			data.FearGreedTrend = trend
		}
	}

	global, err := s.GlobalMarket(ctx)
	if err != nil {
		logger.Warn(ctx, "Global market stats unavailable", "error", err)
	} else {
		data.Global = global
	}

	metrics, err := s.CoinMetrics(ctx, tickers)
	if err != nil {
		logger.Warn(ctx, "Coin metrics unavailable", "error", err)
	} else {
		data.CoinMetrics = metrics
	}

	news, err := s.News(ctx, tickers, 5)
	if err != nil {
		logger.Warn(ctx, "News unavailable", "error", err)
	} else {
		data.News = news
	}

	return data, nil
}

func metricsKey(ticker string) string {
	return "metrics_" + strings.ToUpper(ticker)
}
