package types

import (
	"fmt"
	"strings"
	"time"
)

// AnalystInsight is the structured output of the analyst LLM for one coin.
type AnalystInsight struct {
	Trend              string   `json:"trend"`
	Momentum           string   `json:"momentum"`
	VolatilityScore    float64  `json:"volatility_score"`
	VolumeTrend        string   `json:"volume_trend"`
	KeyObservations    []string `json:"key_observations"`
	SupportLevels      []string `json:"support_levels,omitempty"`
	ResistanceLevels   []string `json:"resistance_levels,omitempty"`
	RiskFactors        []string `json:"risk_factors"`
	OpportunityFactors []string `json:"opportunity_factors"`
	DataQualityNotes   string   `json:"data_quality_notes,omitempty"`
}

// CoinAnalysis is one stored analysis record, keyed by TICKER-NAME.
type CoinAnalysis struct {
	PartitionKey   string             `json:"partition_key"`
	Ticker         string             `json:"ticker"`
	CoinName       string             `json:"coin_name"`
	Symbol         string             `json:"symbol"`
	CurrentPrice   string             `json:"current_price"`
	PriceChange24h string             `json:"price_change_24h"`
	Volume24h      string             `json:"volume_24h"`
	VolumeRank     int                `json:"volume_rank"`
	Insight        AnalystInsight     `json:"insight"`
	Outcome        *PredictionOutcome `json:"outcome,omitempty"`
	AnalyzedAt     time.Time          `json:"analyzed_at"`
}

// PredictionOutcome records how a stored trend call played out once
// enough time passed to grade it. Correct is nil in the neutral band.
type PredictionOutcome struct {
	ActualPrice    string    `json:"actual_price"`
	PriceChangePct float64   `json:"price_change_pct"`
	Label          string    `json:"label"`
	Correct        *bool     `json:"correct,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// PartitionKeyFor builds the storage key for a coin, e.g. "BTC-BITCOIN".
func PartitionKeyFor(ticker, name string) string {
	n := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	return fmt.Sprintf("%s-%s", strings.ToUpper(ticker), n)
}

// TradeAction is the manager's verdict for one symbol.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
	ActionHold TradeAction = "hold"
)

// ParseTradeAction normalizes an LLM-provided action, defaulting to hold.
func ParseTradeAction(s string) TradeAction {
	switch TradeAction(strings.ToLower(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	default:
		return ActionHold
	}
}

// TradeDecision is one manager decision ready for execution.
type TradeDecision struct {
	Symbol     string      `json:"symbol"`
	Action     TradeAction `json:"action"`
	Quantity   string      `json:"quantity,omitempty"`
	Price      string      `json:"price,omitempty"`
	OrderType  string      `json:"order_type,omitempty"`
	Reasoning  string      `json:"reasoning"`
	Confidence float64     `json:"confidence"`
	Priority   int         `json:"priority"`
}

// Actionable reports whether the decision requires an order.
func (d TradeDecision) Actionable() bool {
	return d.Action == ActionBuy || d.Action == ActionSell
}

// DecisionRecord is the full manager output persisted per cycle.
type DecisionRecord struct {
	Timestamp        time.Time       `json:"timestamp"`
	MarketAssessment string          `json:"market_assessment"`
	RiskApproach     string          `json:"risk_approach"`
	PortfolioNotes   string          `json:"portfolio_notes,omitempty"`
	Decisions        []TradeDecision `json:"decisions"`
}

// ExecutionResult is the outcome of submitting one order.
type ExecutionResult struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Status        string `json:"status"`
	Success       bool   `json:"success"`
	ErrorMessage  string `json:"error_message,omitempty"`
	Paper         bool   `json:"paper,omitempty"`
}

// CycleMode selects which phases of the investment cycle run.
type CycleMode string

const (
	ModeFull        CycleMode = "full"
	ModeAnalyzeOnly CycleMode = "analyze_only"
	ModeDecideOnly  CycleMode = "decide_only"
)

// CycleResult summarizes one investment cycle run.
type CycleResult struct {
	Mode              CycleMode         `json:"mode"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	Success           bool              `json:"success"`
	OutcomesScored    int               `json:"outcomes_scored,omitempty"`
	CoinsAnalyzed     int               `json:"coins_analyzed"`
	AnalysisDuration  time.Duration     `json:"analysis_duration_seconds"`
	DecisionsCount    int               `json:"decisions_generated"`
	DecisionsExecuted int               `json:"decisions_executed"`
	DecisionDuration  time.Duration     `json:"decision_duration_seconds"`
	DryRun            bool              `json:"dry_run"`
	ExecutionResults  []ExecutionResult `json:"execution_results,omitempty"`
	Errors            []string          `json:"errors,omitempty"`
}

// Duration is the total wall time of the cycle.
func (r CycleResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// LLMMessage is one chat message sent to an LLM provider.
type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
