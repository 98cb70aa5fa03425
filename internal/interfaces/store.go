package interfaces

import (
	"context"
	"time"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// AnalysisStore persists coin analyses and manager decision records.
// Analyses are keyed by TICKER-NAME partition keys. This is distinct
// from the fundamental-data TTL cache.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a types.CoinAnalysis) error
	SaveAnalyses(ctx context.Context, as []types.CoinAnalysis) error
	Analyses(ctx context.Context) ([]types.CoinAnalysis, error)
	// PendingOutcomes returns analyses recorded at or before cutoff
	// that carry no prediction outcome yet.
	PendingOutcomes(ctx context.Context, cutoff time.Time) ([]types.CoinAnalysis, error)
	// SaveOutcome attaches a prediction outcome to a stored analysis.
	SaveOutcome(ctx context.Context, partitionKey string, o types.PredictionOutcome) error
	SaveDecisionRecord(ctx context.Context, r types.DecisionRecord) error
	RecentDecisions(ctx context.Context, limit int) ([]types.DecisionRecord, error)
	Close() error
}
