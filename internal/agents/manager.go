package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// managerSystemPrompt gives the model full authority over allocation;
// risk discipline is delegated, not hardcoded.
const managerSystemPrompt = `You are an autonomous senior portfolio manager for a cryptocurrency investment fund with FULL AUTHORITY over all trading decisions.

## Your Persona
- Name: Portfolio Manager Omega
- Role: Chief Investment Officer with complete autonomy
- Philosophy: Data-driven decision making with dynamic risk management
- Experience: 15+ years in quantitative trading and portfolio management

## Your Authority
You have COMPLETE AUTONOMY to:
- Decide position sizes (including going to 0% or 100% in any asset)
- Set your own risk parameters and change them as market conditions evolve
- Determine entry/exit timing
- Choose which coins to trade and which to ignore
- Rebalance the portfolio as you see fit

There are NO hardcoded constraints on your decisions. You are trusted to manage the portfolio as you see fit based on your analysis.

## Your Context
You receive:
1. Market analysis data from our analyst agent for the screened coin universe
2. Current portfolio holdings with PNL data where cost basis is known
3. Recent trading decisions for context

## Your Task
1. Review all market analyses and current portfolio state (including PNL)
2. Develop your investment thesis and risk management approach
3. Make specific, actionable trading decisions
4. Provide clear reasoning for each decision, referencing PNL when relevant

## Output Requirements
Return a JSON object with your decisions. Each decision should include:
- symbol: Trading pair (e.g., "BTCUSDT")
- action: "buy", "sell", or "hold"
- quantity: Amount to trade (in quote currency for buys, base currency for sells)
- reasoning: Your detailed reasoning
- confidence: Your confidence level (0.0 to 1.0)
- priority: Execution priority (higher = execute first)

Be decisive. If you believe no action is optimal, explicitly state "hold" with reasoning.`

var managerOutputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "market_assessment": {"type": "string"},
    "risk_approach": {"type": "string"},
    "decisions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "symbol": {"type": "string"},
          "action": {"type": "string", "enum": ["buy", "sell", "hold"]},
          "quantity": {"type": "string"},
          "order_type": {"type": "string", "enum": ["market", "limit"]},
          "price": {"type": "string"},
          "reasoning": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "priority": {"type": "integer"}
        },
        "required": ["symbol", "action", "reasoning", "confidence"]
      }
    },
    "portfolio_notes": {"type": "string"}
  },
  "required": ["market_assessment", "risk_approach", "decisions"]
}`)

// Manager turns stored analyses and the live portfolio into trade
// decisions and executes the actionable ones.
type Manager struct {
	llm         interfaces.LLM
	store       interfaces.AnalysisStore
	trader      interfaces.Trader
	minBalance  decimal.Decimal
	temperature float32
}

var _ interfaces.Manager = (*Manager)(nil)

func NewManager(llm interfaces.LLM, store interfaces.AnalysisStore, trader interfaces.Trader, minBalance decimal.Decimal, temperature float32) *Manager {
	if temperature == 0 {
		temperature = 0.3
	}
	return &Manager{
		llm:         llm,
		store:       store,
		trader:      trader,
		minBalance:  minBalance,
		temperature: temperature,
	}
}

// managerResponse is the raw decision envelope from the model.
type managerResponse struct {
	MarketAssessment string `json:"market_assessment"`
	RiskApproach     string `json:"risk_approach"`
	PortfolioNotes   string `json:"portfolio_notes"`
	Decisions        []struct {
		Symbol     string  `json:"symbol"`
		Action     string  `json:"action"`
		Quantity   string  `json:"quantity"`
		OrderType  string  `json:"order_type"`
		Price      string  `json:"price"`
		Reasoning  string  `json:"reasoning"`
		Confidence float64 `json:"confidence"`
		Priority   int     `json:"priority"`
	} `json:"decisions"`
}

// GenerateDecisions builds the manager prompt from stored analyses,
// the current portfolio and recent decisions, and parses the model's
// decision list sorted by priority then confidence, descending.
func (m *Manager) GenerateDecisions(ctx context.Context) ([]types.TradeDecision, error) {
	ctx, span := trace.StartSpan(ctx, "manager.GenerateDecisions")
	defer span.End()

	logger.Info(ctx, "Generating portfolio decisions", "model", m.llm.Name())

	analyses, err := m.store.Analyses(ctx)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		logger.Warn(ctx, "No analyses available for decision making")
		return nil, nil
	}
	sort.Slice(analyses, func(i, j int) bool { return analyses[i].VolumeRank < analyses[j].VolumeRank })

	portfolio, err := m.trader.Portfolio(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := m.store.RecentDecisions(ctx, 10)
	if err != nil {
		logger.Warn(ctx, "Could not load recent decisions", "error", err)
	}

	prompt := m.buildPrompt(analyses, portfolio, recent)
	msgs := []types.LLMMessage{
		{Role: "system", Content: managerSystemPrompt},
		{Role: "user", Content: prompt},
	}

	raw, err := m.llm.GenerateStructured(ctx, msgs, managerOutputSchema, m.temperature)
	if err != nil {
		return nil, err
	}

	var resp managerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.ErrorWithErr(ctx, "Manager output unparseable", err)
		return nil, nil
	}

	logger.Info(ctx, "Manager analysis complete",
		"market_assessment", truncate(resp.MarketAssessment, 100),
		"decision_count", len(resp.Decisions))

	decisions := make([]types.TradeDecision, 0, len(resp.Decisions))
	for _, d := range resp.Decisions {
		orderType := d.OrderType
		if orderType == "" {
			orderType = "market"
		}
		decisions = append(decisions, types.TradeDecision{
			Symbol:     strings.ToUpper(d.Symbol),
			Action:     types.ParseTradeAction(d.Action),
			Quantity:   d.Quantity,
			Price:      d.Price,
			OrderType:  orderType,
			Reasoning:  d.Reasoning,
			Confidence: d.Confidence,
			Priority:   d.Priority,
		})
	}

	sort.SliceStable(decisions, func(i, j int) bool {
		if decisions[i].Priority != decisions[j].Priority {
			return decisions[i].Priority > decisions[j].Priority
		}
		return decisions[i].Confidence > decisions[j].Confidence
	})

	record := types.DecisionRecord{
		Timestamp:        time.Now(),
		MarketAssessment: resp.MarketAssessment,
		RiskApproach:     resp.RiskApproach,
		PortfolioNotes:   resp.PortfolioNotes,
		Decisions:        decisions,
	}
	if err := m.store.SaveDecisionRecord(ctx, record); err != nil {
		logger.Warn(ctx, "Could not persist decision record", "error", err)
	}

	return decisions, nil
}

// ExecuteDecisions submits the actionable decisions in order. With
// dryRun set, each decision is logged and counted as skipped.
func (m *Manager) ExecuteDecisions(ctx context.Context, decisions []types.TradeDecision, dryRun bool) []types.ExecutionResult {
	ctx, span := trace.StartSpan(ctx, "manager.ExecuteDecisions")
	defer span.End()

	logger.Info(ctx, "Executing decisions", "count", len(decisions), "dry_run", dryRun)

	var results []types.ExecutionResult
	for _, d := range decisions {
		if !d.Actionable() {
			continue
		}
		logger.Decision(ctx, d.Symbol, string(d.Action), d.Confidence, d.Reasoning)

		if dryRun {
			logger.Info(ctx, "DRY RUN: would execute",
				"symbol", d.Symbol, "action", string(d.Action), "quantity", d.Quantity)
			results = append(results, types.ExecutionResult{
				Symbol:  d.Symbol,
				Side:    string(d.Action),
				Status:  "dry_run",
				Success: true,
			})
			continue
		}

		res, err := m.trader.ExecuteDecision(ctx, d)
		if err != nil {
			logger.ErrorWithErr(ctx, "Decision execution failed", err, "symbol", d.Symbol)
			res = types.ExecutionResult{
				Symbol:       d.Symbol,
				Side:         string(d.Action),
				Status:       "error",
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, res)
	}
	return results
}

// RunCycle generates then executes one decision pass.
func (m *Manager) RunCycle(ctx context.Context, dryRun bool) (interfaces.ManagerSummary, error) {
	logger.Info(ctx, "Starting manager cycle", "dry_run", dryRun)

	decisions, err := m.GenerateDecisions(ctx)
	if err != nil {
		return interfaces.ManagerSummary{}, err
	}

	results := m.ExecuteDecisions(ctx, decisions, dryRun)

	// only orders that reached the book count as executed; rejections,
	// invalid decisions and dry runs carry no order ID
	executed := 0
	for _, r := range results {
		if r.Success && r.OrderID != "" {
			executed++
		}
	}

	summary := interfaces.ManagerSummary{
		DecisionsGenerated: len(decisions),
		DecisionsExecuted:  executed,
		Results:            results,
	}
	logger.Info(ctx, "Manager cycle complete",
		"decisions", summary.DecisionsGenerated, "executed", summary.DecisionsExecuted)
	return summary, nil
}

func (m *Manager) buildPrompt(analyses []types.CoinAnalysis, pf types.Portfolio, recent []types.DecisionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Current Market Analyses (%d coins)\n\n", len(analyses))
	b.WriteString(m.formatAnalyses(analyses))
	b.WriteString("\n\n## Current Portfolio State\n\n")
	b.WriteString(m.formatPortfolio(pf))
	b.WriteString("\n\n## Recent Trading Decisions (for context)\n\n")
	b.WriteString(m.formatRecentDecisions(recent))
	b.WriteString("\n\n## Current Timestamp\n")
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteString(`

---

Based on the above data, provide your trading decisions. Consider:
1. Current market conditions and trends
2. Portfolio diversification and risk
3. Liquidity and volume considerations
4. Your confidence in each decision

Remember: You have FULL AUTONOMY. Make the decisions you believe are best for portfolio growth and stability.`)
	return b.String()
}

func (m *Manager) formatAnalyses(analyses []types.CoinAnalysis) string {
	type row struct {
		Symbol             string   `json:"symbol"`
		Ticker             string   `json:"ticker"`
		CurrentPrice       string   `json:"current_price"`
		Change24h          string   `json:"change_24h"`
		Volume24hUSDT      string   `json:"volume_24h_usdt"`
		VolumeRank         int      `json:"volume_rank"`
		Trend              string   `json:"trend"`
		Momentum           string   `json:"momentum"`
		VolatilityScore    float64  `json:"volatility_score"`
		VolumeTrend        string   `json:"volume_trend"`
		KeyObservations    []string `json:"key_observations"`
		RiskFactors        []string `json:"risk_factors"`
		OpportunityFactors []string `json:"opportunity_factors"`
	}

	rows := make([]row, 0, len(analyses))
	for _, a := range analyses {
		rows = append(rows, row{
			Symbol:             a.Symbol,
			Ticker:             a.Ticker,
			CurrentPrice:       a.CurrentPrice,
			Change24h:          a.PriceChange24h,
			Volume24hUSDT:      a.Volume24h,
			VolumeRank:         a.VolumeRank,
			Trend:              a.Insight.Trend,
			Momentum:           a.Insight.Momentum,
			VolatilityScore:    a.Insight.VolatilityScore,
			VolumeTrend:        a.Insight.VolumeTrend,
			KeyObservations:    headOf(a.Insight.KeyObservations, 3),
			RiskFactors:        headOf(a.Insight.RiskFactors, 2),
			OpportunityFactors: headOf(a.Insight.OpportunityFactors, 2),
		})
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return string(out)
}

// formatPortfolio summarizes holdings above the dust threshold with
// PNL where cost basis is known. USDT is reported as quote balance.
func (m *Manager) formatPortfolio(pf types.Portfolio) string {
	type posRow struct {
		Coin             string `json:"coin"`
		Available        string `json:"available"`
		Frozen           string `json:"frozen"`
		Total            string `json:"total"`
		CurrentPrice     string `json:"current_price,omitempty"`
		AvgEntryPrice    string `json:"avg_entry_price,omitempty"`
		UnrealizedPNL    string `json:"unrealized_pnl,omitempty"`
		UnrealizedPNLPct string `json:"unrealized_pnl_pct,omitempty"`
	}
	summary := struct {
		AvailableUSDT      string   `json:"available_usdt"`
		TotalPositions     int      `json:"total_positions"`
		MinBalanceFilter   string   `json:"min_balance_filter"`
		Positions          []posRow `json:"positions"`
		TotalUnrealizedPNL string   `json:"total_unrealized_pnl"`
	}{
		AvailableUSDT:    pf.USDTBalance().String(),
		TotalPositions:   pf.TotalPositions(),
		MinBalanceFilter: m.minBalance.String(),
		Positions:        []posRow{},
	}

	totalPNL := decimal.Zero
	for _, p := range pf.Positions {
		if strings.EqualFold(p.Coin, "USDT") || p.TotalBalance().LessThanOrEqual(m.minBalance) {
			continue
		}
		row := posRow{
			Coin:      p.Coin,
			Available: p.Available.String(),
			Frozen:    p.Frozen.String(),
			Total:     p.TotalBalance().String(),
		}
		if !p.CurrentPrice.IsZero() {
			row.CurrentPrice = p.CurrentPrice.String()
		}
		if !p.AvgEntryPrice.IsZero() {
			row.AvgEntryPrice = p.AvgEntryPrice.String()
			row.UnrealizedPNL = p.UnrealizedPNL.StringFixed(2)
			row.UnrealizedPNLPct = p.UnrealizedPNLPct.StringFixed(2)
			totalPNL = totalPNL.Add(p.UnrealizedPNL)
		}
		summary.Positions = append(summary.Positions, row)
	}
	summary.TotalUnrealizedPNL = totalPNL.StringFixed(2)

	out, _ := json.MarshalIndent(summary, "", "  ")
	return string(out)
}

func (m *Manager) formatRecentDecisions(records []types.DecisionRecord) string {
	if len(records) == 0 {
		return "No recent decisions."
	}
	type row struct {
		Timestamp string `json:"timestamp"`
		Symbol    string `json:"symbol"`
		Action    string `json:"action"`
		Quantity  string `json:"quantity"`
		Reasoning string `json:"reasoning"`
	}
	var rows []row
	for _, r := range records {
		for _, d := range r.Decisions {
			rows = append(rows, row{
				Timestamp: r.Timestamp.Format(time.RFC3339),
				Symbol:    d.Symbol,
				Action:    string(d.Action),
				Quantity:  d.Quantity,
				Reasoning: truncate(d.Reasoning, 100),
			})
			if len(rows) >= 10 {
				break
			}
		}
		if len(rows) >= 10 {
			break
		}
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return string(out)
}

func headOf(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
