package fundamental

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vnnyx/lumina-capital/internal/resilience"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// CoinGeckoClient talks to the CoinGecko v3 API. The free tier allows
// 30 calls per minute, so every request goes through a rate limiter and
// the resilient caller.
type CoinGeckoClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
	caller  *resilience.Caller
}

// marketRow is one row of /coins/markets.
type marketRow struct {
	ID                  string  `json:"id"`
	Symbol              string  `json:"symbol"`
	Name                string  `json:"name"`
	MarketCap           float64 `json:"market_cap"`
	MarketCapRank       int     `json:"market_cap_rank"`
	FullyDilutedVal     float64 `json:"fully_diluted_valuation"`
	TotalVolume         float64 `json:"total_volume"`
	CirculatingSupply   float64 `json:"circulating_supply"`
	TotalSupply         float64 `json:"total_supply"`
	MaxSupply           float64 `json:"max_supply"`
	ATH                 float64 `json:"ath"`
	ATHChangePercentage float64 `json:"ath_change_percentage"`
	ATL                 float64 `json:"atl"`
	ATLChangePercentage float64 `json:"atl_change_percentage"`
	PriceChange7d       float64 `json:"price_change_percentage_7d_in_currency"`
	PriceChange30d      float64 `json:"price_change_percentage_30d_in_currency"`
}

// searchHit is one coin entry of /search.
type searchHit struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}

const maxCoinsPerRequest = 100 // CoinGecko limit on /coins/markets

func NewCoinGeckoClient(baseURL, apiKey string, perMinute int) *CoinGeckoClient {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		caller:  resilience.NewCaller("coingecko", resilience.DefaultPolicy()),
	}
}

// Markets fetches market metrics for the given CoinGecko IDs in a
// single batched request.
func (c *CoinGeckoClient) Markets(ctx context.Context, ids []string) ([]marketRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxCoinsPerRequest {
		ids = ids[:maxCoinsPerRequest]
	}
	params := url.Values{
		"vs_currency":             {"usd"},
		"ids":                     {strings.Join(ids, ",")},
		"order":                   {"market_cap_desc"},
		"per_page":                {fmt.Sprint(maxCoinsPerRequest)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"7d,30d"},
	}
	var rows []marketRow
	if err := c.getJSON(ctx, "/coins/markets", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Search queries /search and returns the coin hits.
func (c *CoinGeckoClient) Search(ctx context.Context, query string) ([]searchHit, error) {
	var out struct {
		Coins []searchHit `json:"coins"`
	}
	if err := c.getJSON(ctx, "/search", url.Values{"query": {query}}, &out); err != nil {
		return nil, err
	}
	return out.Coins, nil
}

// Global fetches global cryptocurrency market stats.
func (c *CoinGeckoClient) Global(ctx context.Context) (types.GlobalMarket, error) {
	var out struct {
		Data struct {
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			TotalVolume         map[string]float64 `json:"total_volume"`
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
			MarketCapChange24h  float64            `json:"market_cap_change_percentage_24h_usd"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/global", nil, &out); err != nil {
		return types.GlobalMarket{}, err
	}
	return types.GlobalMarket{
		TotalMarketCapUSD:     out.Data.TotalMarketCap["usd"],
		TotalVolumeUSD:        out.Data.TotalVolume["usd"],
		BTCDominancePct:       out.Data.MarketCapPercentage["btc"],
		MarketCapChange24hPct: out.Data.MarketCapChange24h,
	}, nil
}

func (c *CoinGeckoClient) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	return c.caller.Do(ctx, "coingecko"+path, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		u := c.baseURL + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return resilience.Transient(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resilience.Transient(err)
		}
		if herr := resilience.FromHTTPStatus(resp.StatusCode, string(body)); herr != nil {
			return fmt.Errorf("coingecko %s: %w", path, herr)
		}
		if err := json.Unmarshal(body, v); err != nil {
			return resilience.Permanentf("coingecko %s: decode: %v", path, err)
		}
		return nil
	})
}
