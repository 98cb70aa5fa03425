package types

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source tags where a universe entry came from.
type Source string

const (
	SourcePortfolio      Source = "portfolio"
	SourceRankedUniverse Source = "ranked_universe"
)

// CoinRef identifies one coin considered in an analysis cycle.
// Ticker is always uppercase and non-empty; CanonicalID is the
// CoinGecko identifier once resolved.
type CoinRef struct {
	Ticker      string `json:"ticker"`
	CanonicalID string `json:"canonical_id,omitempty"`
	Source      Source `json:"source"`
}

// NewCoinRef normalizes the ticker to uppercase.
func NewCoinRef(ticker string, source Source) CoinRef {
	return CoinRef{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), Source: source}
}

// Symbol returns the USDT spot trading pair for the coin.
func (c CoinRef) Symbol() string {
	if strings.HasSuffix(c.Ticker, "USDT") {
		return c.Ticker
	}
	return c.Ticker + "USDT"
}

// Position is a single asset holding on the exchange.
type Position struct {
	Coin      string          `json:"coin"`
	Available decimal.Decimal `json:"available"`
	Frozen    decimal.Decimal `json:"frozen"`
	Locked    decimal.Decimal `json:"locked"`
	UpdatedAt int64           `json:"updated_at"`

	// PNL enrichment, zero when cost basis is unknown.
	CurrentPrice     decimal.Decimal `json:"current_price,omitempty"`
	AvgEntryPrice    decimal.Decimal `json:"avg_entry_price,omitempty"`
	UnrealizedPNL    decimal.Decimal `json:"unrealized_pnl,omitempty"`
	UnrealizedPNLPct decimal.Decimal `json:"unrealized_pnl_pct,omitempty"`
}

// TotalBalance includes frozen and locked amounts.
func (p Position) TotalBalance() decimal.Decimal {
	return p.Available.Add(p.Frozen).Add(p.Locked)
}

// Portfolio is the complete account state at fetch time.
type Portfolio struct {
	Positions []Position `json:"positions"`
	FetchedAt time.Time  `json:"fetched_at"`
}

func (pf Portfolio) Position(coin string) (Position, bool) {
	for _, p := range pf.Positions {
		if strings.EqualFold(p.Coin, coin) {
			return p, true
		}
	}
	return Position{}, false
}

// USDTBalance returns the available quote balance.
func (pf Portfolio) USDTBalance() decimal.Decimal {
	if p, ok := pf.Position("USDT"); ok {
		return p.Available
	}
	return decimal.Zero
}

// TotalPositions counts non-zero holdings.
func (pf Portfolio) TotalPositions() int {
	n := 0
	for _, p := range pf.Positions {
		if p.TotalBalance().IsPositive() {
			n++
		}
	}
	return n
}

// TickerData is a 24h spot ticker snapshot.
type TickerData struct {
	Symbol     string `json:"symbol"`
	High24h    string `json:"high24h"`
	Low24h     string `json:"low24h"`
	OpenPrice  string `json:"open"`
	LastPrice  string `json:"lastPr"`
	BaseVolume string `json:"baseVolume"`
	USDTVolume string `json:"usdtVolume"`
	BidPrice   string `json:"bidPr"`
	AskPrice   string `json:"askPr"`
	Change24h  string `json:"change24h"`
	Timestamp  int64  `json:"ts,string"`
}

// Ticker strips the USDT suffix from the trading pair.
func (t TickerData) Ticker() string {
	return strings.ToUpper(strings.TrimSuffix(t.Symbol, "USDT"))
}

// USDTVolumeFloat parses the quote volume for sorting; 0 on bad input.
func (t TickerData) USDTVolumeFloat() float64 {
	v, err := decimal.NewFromString(t.USDTVolume)
	if err != nil {
		return 0
	}
	f, _ := v.Float64()
	return f
}

// Change24hPct returns the 24h change as a percentage. The exchange
// reports it as a fraction (0.05 = 5%).
func (t TickerData) Change24hPct() float64 {
	v, err := decimal.NewFromString(t.Change24h)
	if err != nil {
		return 0
	}
	f, _ := v.Mul(decimal.NewFromInt(100)).Float64()
	return f
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// MarketData bundles the ticker with recent candles for one symbol.
type MarketData struct {
	Ticker      TickerData `json:"ticker"`
	Candles     []Candle   `json:"candles"`
	Granularity string     `json:"granularity"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// Trend classifies recent price action from the candle closes.
func (m MarketData) Trend() string {
	if len(m.Candles) < 2 {
		return "unknown"
	}
	first := m.Candles[0].Close
	last := m.Candles[len(m.Candles)-1].Close
	if first == 0 {
		return "unknown"
	}
	change := (last - first) / first
	switch {
	case change > 0.02:
		return "up"
	case change < -0.02:
		return "down"
	default:
		return "sideways"
	}
}

// Volatility is the coefficient of variation of candle closes.
func (m MarketData) Volatility() float64 {
	if len(m.Candles) < 2 {
		return 0
	}
	var sum float64
	for _, c := range m.Candles {
		sum += c.Close
	}
	mean := sum / float64(len(m.Candles))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, c := range m.Candles {
		d := c.Close - mean
		variance += d * d
	}
	variance /= float64(len(m.Candles))
	return math.Sqrt(variance) / mean
}
