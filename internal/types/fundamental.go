package types

import (
	"fmt"
	"strings"
	"time"
)

// FearGreed is the Alternative.me market sentiment index (0-100).
type FearGreed struct {
	Value     int       `json:"value"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// GlobalMarket is the CoinGecko global market snapshot.
type GlobalMarket struct {
	TotalMarketCapUSD     float64 `json:"total_market_cap_usd"`
	TotalVolumeUSD        float64 `json:"total_volume_usd"`
	BTCDominancePct       float64 `json:"btc_dominance_pct"`
	MarketCapChange24hPct float64 `json:"market_cap_change_24h_pct"`
}

// CoinMetrics are fundamental metrics from CoinGecko for one coin.
type CoinMetrics struct {
	Ticker               string    `json:"ticker"`
	MarketCap            float64   `json:"market_cap,omitempty"`
	MarketCapRank        int       `json:"market_cap_rank,omitempty"`
	FullyDilutedVal      float64   `json:"fully_diluted_valuation,omitempty"`
	TotalVolume          float64   `json:"total_volume,omitempty"`
	CirculatingSupply    float64   `json:"circulating_supply,omitempty"`
	TotalSupply          float64   `json:"total_supply,omitempty"`
	MaxSupply            float64   `json:"max_supply,omitempty"`
	ATH                  float64   `json:"ath,omitempty"`
	ATHChangePercentage  float64   `json:"ath_change_percentage,omitempty"`
	ATL                  float64   `json:"atl,omitempty"`
	ATLChangePercentage  float64   `json:"atl_change_percentage,omitempty"`
	PriceChange7d        float64   `json:"price_change_7d,omitempty"`
	PriceChange30d       float64   `json:"price_change_30d,omitempty"`
	LastUpdated          time.Time `json:"last_updated"`
}

// NewsItem is a single headline with optional sentiment.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment,omitempty"`
}

// FundamentalData aggregates every fundamental source for one cycle.
type FundamentalData struct {
	FearGreed      *FearGreed             `json:"fear_greed,omitempty"`
	FearGreedTrend string                 `json:"fear_greed_trend,omitempty"`
	Global         *GlobalMarket          `json:"global,omitempty"`
	CoinMetrics    map[string]CoinMetrics `json:"coin_metrics"`
	News           []NewsItem             `json:"news"`
	FetchedAt      time.Time              `json:"fetched_at"`
}

// PromptSummary renders the fundamental context block for one coin,
// suitable for inclusion in an analyst prompt. Empty when nothing is known.
func (f FundamentalData) PromptSummary(ticker string) string {
	var b strings.Builder

	if f.FearGreed != nil {
		fmt.Fprintf(&b, "### Market Sentiment\n- **Fear & Greed Index**: %d (%s)\n",
			f.FearGreed.Value, f.FearGreed.Label)
		if f.FearGreedTrend != "" {
			fmt.Fprintf(&b, "- **7d Sentiment Trend**: %s\n", f.FearGreedTrend)
		}
	}

	if f.Global != nil {
		b.WriteString("### Global Market\n")
		fmt.Fprintf(&b, "- **Total Market Cap**: $%.0f (%+.2f%% 24h)\n",
			f.Global.TotalMarketCapUSD, f.Global.MarketCapChange24hPct)
		if f.Global.BTCDominancePct > 0 {
			fmt.Fprintf(&b, "- **BTC Dominance**: %.1f%%\n", f.Global.BTCDominancePct)
		}
	}

	if m, ok := f.CoinMetrics[strings.ToUpper(ticker)]; ok {
		b.WriteString("### Fundamental Metrics\n")
		if m.MarketCap > 0 {
			fmt.Fprintf(&b, "- **Market Cap**: $%.0f (rank #%d)\n", m.MarketCap, m.MarketCapRank)
		}
		if m.TotalVolume > 0 {
			fmt.Fprintf(&b, "- **Total Volume**: $%.0f\n", m.TotalVolume)
		}
		if m.ATH > 0 {
			fmt.Fprintf(&b, "- **ATH**: $%g (%.1f%% from ATH)\n", m.ATH, m.ATHChangePercentage)
		}
		if m.PriceChange7d != 0 {
			fmt.Fprintf(&b, "- **7d Change**: %.2f%%\n", m.PriceChange7d)
		}
		if m.PriceChange30d != 0 {
			fmt.Fprintf(&b, "- **30d Change**: %.2f%%\n", m.PriceChange30d)
		}
		if m.MaxSupply > 0 && m.CirculatingSupply > 0 {
			fmt.Fprintf(&b, "- **Supply**: %.0f circulating of %.0f max\n",
				m.CirculatingSupply, m.MaxSupply)
		}
	}

	if len(f.News) > 0 {
		b.WriteString("### Recent Headlines\n")
		for _, n := range f.News {
			fmt.Fprintf(&b, "- %s (%s)\n", n.Title, n.Source)
		}
	}

	return b.String()
}

// ScreenedCoin is a universe candidate with its screening score.
type ScreenedCoin struct {
	Ticker       string    `json:"ticker"`
	Symbol       string    `json:"symbol"`
	Score        float64   `json:"score"`
	CurrentPrice float64   `json:"current_price"`
	Change24h    float64   `json:"change_24h"`
	Change7d     float64   `json:"change_7d,omitempty"`
	Volume24h    float64   `json:"volume_24h"`
	MarketCap    float64   `json:"market_cap,omitempty"`
	Reasons      []string  `json:"screening_reasons,omitempty"`
	Deductions   []string  `json:"deduction_reasons,omitempty"`
	ScreenedAt   time.Time `json:"screened_at"`
}
