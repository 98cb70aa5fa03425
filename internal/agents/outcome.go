package agents

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// Outcome grading bands: a move over half a percent in the predicted
// direction is correct, the mirror is wrong, the band between is
// neutral. Predictions younger than the minimum age are not graded.
const (
	outcomeThresholdPct = 0.5
	outcomeMinAge       = 4 * time.Hour
)

// OutcomeBackfill grades stored trend calls against live prices. It
// runs before each analysis pass, while the previous cycle's analyses
// are still in the store.
type OutcomeBackfill struct {
	store  interfaces.AnalysisStore
	market interfaces.Market

	// now is swappable in tests.
	now func() time.Time
}

var _ interfaces.OutcomeScorer = (*OutcomeBackfill)(nil)

func NewOutcomeBackfill(store interfaces.AnalysisStore, market interfaces.Market) *OutcomeBackfill {
	return &OutcomeBackfill{store: store, market: market, now: time.Now}
}

// Backfill scores every pending prediction old enough to grade. Coins
// without a live price or a parseable analysis price are skipped.
func (b *OutcomeBackfill) Backfill(ctx context.Context) (interfaces.OutcomeStats, error) {
	ctx, span := trace.StartSpan(ctx, "outcomes.Backfill")
	defer span.End()

	var stats interfaces.OutcomeStats
	pending, err := b.store.PendingOutcomes(ctx, b.now().Add(-outcomeMinAge))
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}
	logger.Info(ctx, "Scoring pending prediction outcomes", "count", len(pending))

	tickers, err := b.market.TopCoinsByVolume(ctx, 0)
	if err != nil {
		return stats, err
	}
	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if v, perr := strconv.ParseFloat(t.LastPrice, 64); perr == nil {
			prices[strings.ToUpper(t.Symbol)] = v
		}
	}

	for _, a := range pending {
		stats.Processed++

		current, ok := prices[strings.ToUpper(a.Symbol)]
		if !ok || current == 0 {
			logger.Warn(ctx, "No live price for outcome", "symbol", a.Symbol)
			stats.Skipped++
			continue
		}
		analyzed, perr := strconv.ParseFloat(a.CurrentPrice, 64)
		if perr != nil || analyzed <= 0 {
			logger.Warn(ctx, "Unusable analysis price for outcome", "symbol", a.Symbol)
			stats.Skipped++
			continue
		}
		changePct := (current - analyzed) / analyzed * 100

		label, correct, graded := gradePrediction(a.Insight.Trend, changePct)
		if !graded {
			stats.Skipped++
			continue
		}

		outcome := types.PredictionOutcome{
			ActualPrice:    strconv.FormatFloat(current, 'f', -1, 64),
			PriceChangePct: changePct,
			Label:          label,
			Correct:        correct,
			RecordedAt:     b.now(),
		}
		if err := b.store.SaveOutcome(ctx, a.PartitionKey, outcome); err != nil {
			logger.Warn(ctx, "Could not record prediction outcome", "key", a.PartitionKey, "error", err)
			stats.Skipped++
			continue
		}
		stats.Scored++
		logger.Info(ctx, "Prediction outcome recorded",
			"ticker", a.Ticker,
			"predicted", a.Insight.Trend,
			"change_pct", fmt.Sprintf("%.2f", changePct),
			"outcome", label)
	}

	logger.Info(ctx, "Outcome backfill complete",
		"processed", stats.Processed, "scored", stats.Scored, "skipped", stats.Skipped)
	return stats, nil
}

// gradePrediction grades a trend call against the realized move.
// correct is nil in the neutral band; graded is false for trends with
// no defined direction.
func gradePrediction(trend string, changePct float64) (label string, correct *bool, graded bool) {
	yes, no := true, false
	switch trend {
	case "bullish":
		switch {
		case changePct > outcomeThresholdPct:
			return "correct", &yes, true
		case changePct < -outcomeThresholdPct:
			return "wrong", &no, true
		default:
			return "neutral", nil, true
		}
	case "bearish":
		switch {
		case changePct < -outcomeThresholdPct:
			return "correct", &yes, true
		case changePct > outcomeThresholdPct:
			return "wrong", &no, true
		default:
			return "neutral", nil, true
		}
	case "sideways":
		if math.Abs(changePct) <= outcomeThresholdPct {
			return "correct", &yes, true
		}
		return "wrong", &no, true
	default:
		return "", nil, false
	}
}
