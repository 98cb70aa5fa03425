package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/fundamental"
	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// analystSystemPrompt frames the model as a market analyst whose output
// feeds the portfolio manager.
const analystSystemPrompt = `You are an expert cryptocurrency market analyst with deep knowledge of technical analysis, fundamental analysis, market microstructure, and crypto trading patterns.

## Your Persona
- Name: Market Analyst Alpha
- Expertise: Technical analysis, fundamental analysis, volume analysis, price action, market sentiment
- Approach: Data-driven, objective, thorough

## Your Context
You are part of an automated investment management system. Your role is to analyze market data and provide structured insights that will be used by a portfolio manager AI to make trading decisions.

## Your Task
Analyze the provided market data and fundamental data for a cryptocurrency and produce a comprehensive analysis. Focus on:

### Technical Analysis
1. **Price Trend**: Identify the current trend (bullish/bearish/sideways) based on recent price action
2. **Momentum**: Assess the strength of the current move (strong/moderate/weak)
3. **Volatility**: Calculate and interpret price volatility
4. **Volume Analysis**: Analyze trading volume patterns and their implications
5. **Support/Resistance**: Identify key price levels

### Fundamental Analysis (when data provided)
6. **Market Sentiment**: Consider Fear & Greed Index implications
7. **Market Position**: Evaluate market cap rank and relative valuation
8. **Supply Dynamics**: Consider circulating supply vs max supply
9. **Price Context**: How far from ATH/ATL, 7d/30d performance

### Synthesis
10. **Risk Factors**: Note any concerning patterns or risks (technical AND fundamental)
11. **Opportunity Factors**: Highlight potential opportunities

## Output Requirements
You MUST respond with valid JSON matching the exact schema provided. Be specific and quantitative where possible. Base all conclusions on the data provided. When fundamental data is available, integrate it into your analysis.`

// analystOutputSchema constrains the analyst response.
var analystOutputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "trend": {"type": "string", "enum": ["bullish", "bearish", "sideways"]},
    "momentum": {"type": "string", "enum": ["strong", "moderate", "weak"]},
    "volatility_score": {"type": "number", "minimum": 0, "maximum": 1},
    "volume_trend": {"type": "string", "enum": ["increasing", "decreasing", "stable"]},
    "key_observations": {"type": "array", "items": {"type": "string"}},
    "support_levels": {"type": "array", "items": {"type": "string"}},
    "resistance_levels": {"type": "array", "items": {"type": "string"}},
    "risk_factors": {"type": "array", "items": {"type": "string"}},
    "opportunity_factors": {"type": "array", "items": {"type": "string"}},
    "data_quality_notes": {"type": "string"}
  },
  "required": ["trend", "momentum", "volatility_score", "volume_trend", "key_observations", "risk_factors", "opportunity_factors"]
}`)

const (
	candleGranularity = "1h"
	candleLimit       = 48
	fundamentalCoins  = 20
)

// Analyst analyzes each coin in the universe and persists the results.
type Analyst struct {
	llm         interfaces.LLM
	market      interfaces.Market
	store       interfaces.AnalysisStore
	fundamental interfaces.FundamentalSource
	temperature float32
}

var _ interfaces.Analyst = (*Analyst)(nil)

func NewAnalyst(llm interfaces.LLM, market interfaces.Market, store interfaces.AnalysisStore, fund interfaces.FundamentalSource, temperature float32) *Analyst {
	if temperature == 0 {
		temperature = 0.3
	}
	return &Analyst{
		llm:         llm,
		market:      market,
		store:       store,
		fundamental: fund,
		temperature: temperature,
	}
}

// AnalyzeUniverse analyzes the merged universe in order. Fundamental
// data is fetched once for the leading coins; per-coin failures are
// logged and skipped, not fatal.
func (a *Analyst) AnalyzeUniverse(ctx context.Context, universe []types.CoinRef) ([]types.CoinAnalysis, error) {
	ctx, span := trace.StartSpan(ctx, "analyst.AnalyzeUniverse")
	defer span.End()

	logger.Info(ctx, "Starting universe analysis", "coins", len(universe), "model", a.llm.Name())

	fund := a.fetchFundamentals(ctx, universe)

	analyses := make([]types.CoinAnalysis, 0, len(universe))
	for i, ref := range universe {
		rank := i + 1
		analysis, err := a.analyzeCoin(ctx, ref, rank, fund)
		if err != nil {
			logger.ErrorWithErr(ctx, "Coin analysis failed", err, "ticker", ref.Ticker)
			continue
		}
		analyses = append(analyses, analysis)

		if rank%10 == 0 {
			logger.Info(ctx, "Analysis progress", "completed", rank, "total", len(universe))
		}
	}

	logger.Info(ctx, "Universe analysis complete", "analyzed", len(analyses), "skipped", len(universe)-len(analyses))
	return analyses, nil
}

func (a *Analyst) fetchFundamentals(ctx context.Context, universe []types.CoinRef) *types.FundamentalData {
	if a.fundamental == nil {
		return nil
	}
	n := len(universe)
	if n > fundamentalCoins {
		n = fundamentalCoins
	}
	tickers := make([]string, 0, n)
	for _, ref := range universe[:n] {
		tickers = append(tickers, ref.Ticker)
	}

	data, err := a.fundamental.All(ctx, tickers)
	if err != nil {
		logger.Warn(ctx, "Continuing without fundamental data", "error", err)
		return nil
	}
	if data.FearGreed != nil {
		logger.Info(ctx, "Fear & Greed Index fetched", "value", data.FearGreed.Value, "label", data.FearGreed.Label)
	}
	logger.Info(ctx, "Coin metrics fetched", "count", len(data.CoinMetrics))
	return &data
}

func (a *Analyst) analyzeCoin(ctx context.Context, ref types.CoinRef, rank int, fund *types.FundamentalData) (types.CoinAnalysis, error) {
	symbol := ref.Symbol()
	logger.Info(ctx, "Analyzing coin", "symbol", symbol, "rank", rank, "source", string(ref.Source))

	md, err := a.market.MarketSnapshot(ctx, symbol, candleGranularity, candleLimit)
	if err != nil {
		return types.CoinAnalysis{}, fmt.Errorf("market snapshot %s: %w", symbol, err)
	}

	prompt := a.buildPrompt(md, rank, ref.Ticker, fund)
	msgs := []types.LLMMessage{
		{Role: "system", Content: analystSystemPrompt},
		{Role: "user", Content: prompt},
	}

	raw, err := a.llm.GenerateStructured(ctx, msgs, analystOutputSchema, a.temperature)
	if err != nil {
		return types.CoinAnalysis{}, fmt.Errorf("analyst llm %s: %w", symbol, err)
	}

	insight := parseInsight(raw)
	coinName := fundamental.CoinName(ref.Ticker)

	analysis := types.CoinAnalysis{
		PartitionKey:   types.PartitionKeyFor(ref.Ticker, coinName),
		Ticker:         ref.Ticker,
		CoinName:       coinName,
		Symbol:         symbol,
		CurrentPrice:   md.Ticker.LastPrice,
		PriceChange24h: md.Ticker.Change24h,
		Volume24h:      md.Ticker.USDTVolume,
		VolumeRank:     rank,
		Insight:        insight,
		AnalyzedAt:     time.Now(),
	}

	if err := a.store.SaveAnalysis(ctx, analysis); err != nil {
		return types.CoinAnalysis{}, fmt.Errorf("save analysis %s: %w", symbol, err)
	}

	logger.Info(ctx, "Coin analysis complete",
		"symbol", symbol, "trend", insight.Trend, "momentum", insight.Momentum)
	return analysis, nil
}

func (a *Analyst) buildPrompt(md types.MarketData, rank int, ticker string, fund *types.FundamentalData) string {
	recent := md.Candles
	if len(recent) > 24 {
		recent = recent[len(recent)-24:]
	}
	candleJSON, _ := json.MarshalIndent(recent, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "## Market Data for %s\n\n", md.Ticker.Symbol)
	b.WriteString("### Current Ticker Data\n")
	fmt.Fprintf(&b, "- **Symbol**: %s\n", md.Ticker.Symbol)
	fmt.Fprintf(&b, "- **Current Price**: $%s\n", md.Ticker.LastPrice)
	fmt.Fprintf(&b, "- **24h High**: $%s\n", md.Ticker.High24h)
	fmt.Fprintf(&b, "- **24h Low**: $%s\n", md.Ticker.Low24h)
	fmt.Fprintf(&b, "- **24h Open**: $%s\n", md.Ticker.OpenPrice)
	fmt.Fprintf(&b, "- **24h Change**: %.2f%%\n", md.Ticker.Change24hPct())
	fmt.Fprintf(&b, "- **24h Volume (USDT)**: $%s\n", md.Ticker.USDTVolume)
	fmt.Fprintf(&b, "- **Volume Rank**: #%d\n", rank)
	fmt.Fprintf(&b, "- **Bid/Ask Spread**: $%s / $%s\n\n", md.Ticker.BidPrice, md.Ticker.AskPrice)
	fmt.Fprintf(&b, "### Price History (Last %d %s candles)\n```json\n%s\n```\n\n", len(recent), md.Granularity, candleJSON)
	b.WriteString("### Calculated Metrics\n")
	fmt.Fprintf(&b, "- **Simple Trend**: %s\n", md.Trend())
	fmt.Fprintf(&b, "- **Volatility (CV)**: %.4f\n", md.Volatility())

	if fund != nil {
		if section := fund.PromptSummary(ticker); section != "" {
			b.WriteString("\n")
			b.WriteString(section)
		}
	}

	b.WriteString("\nPlease analyze this data and provide your insights.")
	return b.String()
}

// parseInsight decodes the model output, filling safe defaults for
// anything missing or malformed.
func parseInsight(raw json.RawMessage) types.AnalystInsight {
	var insight types.AnalystInsight
	_ = json.Unmarshal(raw, &insight)

	if insight.Trend == "" {
		insight.Trend = "unknown"
	}
	if insight.Momentum == "" {
		insight.Momentum = "unknown"
	}
	if insight.VolumeTrend == "" {
		insight.VolumeTrend = "stable"
	}
	return insight
}
