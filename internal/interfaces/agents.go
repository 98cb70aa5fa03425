package interfaces

import (
	"context"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// Analyst analyzes a coin universe and persists the results.
type Analyst interface {
	AnalyzeUniverse(ctx context.Context, universe []types.CoinRef) ([]types.CoinAnalysis, error)
}

// ManagerSummary reports one decision/execution pass.
type ManagerSummary struct {
	DecisionsGenerated int
	DecisionsExecuted  int
	Results            []types.ExecutionResult
}

// Manager turns stored analyses plus the live portfolio into trade
// decisions and optionally executes them.
type Manager interface {
	RunCycle(ctx context.Context, dryRun bool) (ManagerSummary, error)
}

// OutcomeStats reports one outcome-backfill pass.
type OutcomeStats struct {
	Processed int
	Scored    int
	Skipped   int
}

// OutcomeScorer grades past analyst predictions against realized
// prices and records the outcomes.
type OutcomeScorer interface {
	Backfill(ctx context.Context) (OutcomeStats, error)
}
