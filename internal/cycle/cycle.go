package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/fundamental"
	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
	"github.com/vnnyx/lumina-capital/internal/universe"
)

// Cycle orchestrates one investment cycle: screening, universe
// merging, ticker resolution, analysis, then decisions and execution.
// It is a sequential single-process batch; phases never overlap.
type Cycle struct {
	trader           interfaces.Trader
	analyst          interfaces.Analyst
	manager          interfaces.Manager
	scorer           interfaces.OutcomeScorer
	screener         *universe.Screener
	resolver         *fundamental.Resolver
	minBalance       decimal.Decimal
	includePortfolio bool
}

func New(trader interfaces.Trader, analyst interfaces.Analyst, manager interfaces.Manager, scorer interfaces.OutcomeScorer, screener *universe.Screener, resolver *fundamental.Resolver, minBalance decimal.Decimal, includePortfolio bool) *Cycle {
	return &Cycle{
		trader:           trader,
		analyst:          analyst,
		manager:          manager,
		scorer:           scorer,
		screener:         screener,
		resolver:         resolver,
		minBalance:       minBalance,
		includePortfolio: includePortfolio,
	}
}

// Run executes the cycle in the given mode. The returned result always
// carries timings and per-phase errors; the error is non-nil only when
// a whole phase failed.
func (c *Cycle) Run(ctx context.Context, mode types.CycleMode, dryRun bool) (types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "cycle.Run")
	defer span.End()

	logger.Info(ctx, "Starting investment cycle", "mode", string(mode), "dry_run", dryRun)

	result := types.CycleResult{
		Mode:      mode,
		StartTime: time.Now(),
		Success:   true,
		DryRun:    dryRun,
	}

	var runErr error
	if mode == types.ModeFull || mode == types.ModeAnalyzeOnly {
		if err := c.runAnalysisPhase(ctx, &result); err != nil {
			result.Success = false
			runErr = err
		}
	}
	if runErr == nil && (mode == types.ModeFull || mode == types.ModeDecideOnly) {
		if err := c.runDecisionPhase(ctx, &result, dryRun); err != nil {
			result.Success = false
			runErr = err
		}
	}

	result.EndTime = time.Now()

	logger.Info(ctx, "Investment cycle complete",
		"success", result.Success,
		"duration", result.Duration().String(),
		"analyzed", result.CoinsAnalyzed,
		"decisions", result.DecisionsCount,
		"executed", result.DecisionsExecuted,
	)
	return result, runErr
}

func (c *Cycle) runAnalysisPhase(ctx context.Context, result *types.CycleResult) (err error) {
	logger.Info(ctx, "Starting analysis phase")
	phaseStart := time.Now()
	defer func() {
		result.AnalysisDuration = time.Since(phaseStart)
		if err != nil {
			logger.ErrorWithErr(ctx, "Analysis phase failed", err)
			result.Errors = append(result.Errors, fmt.Sprintf("analysis phase: %v", err))
		}
	}()

	c.scoreOutcomes(ctx, result)

	positions := c.fetchPositions(ctx, result)

	ranked, err := c.screener.Screen(ctx)
	if err != nil {
		return err
	}

	merged := universe.Merge(positions, universe.RankedRefs(ranked), c.minBalance)
	logger.Info(ctx, "Universe merged", "coins", len(merged))

	resolved := c.resolveUniverse(ctx, merged, result)
	if len(resolved) == 0 {
		logger.Warn(ctx, "Empty universe after resolution, nothing to analyze")
		return nil
	}

	analyses, err := c.analyst.AnalyzeUniverse(ctx, resolved)
	if err != nil {
		return err
	}
	result.CoinsAnalyzed = len(analyses)

	logger.Info(ctx, "Analysis phase complete", "analyzed", result.CoinsAnalyzed)
	return nil
}

// scoreOutcomes grades the previous cycle's predictions before the new
// analyses overwrite them. Failure never aborts the cycle.
func (c *Cycle) scoreOutcomes(ctx context.Context, result *types.CycleResult) {
	if c.scorer == nil {
		return
	}
	stats, err := c.scorer.Backfill(ctx)
	if err != nil {
		logger.Warn(ctx, "Outcome backfill failed, continuing", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("outcome backfill: %v", err))
		return
	}
	result.OutcomesScored = stats.Scored
}

// fetchPositions loads portfolio holdings for universe inclusion. A
// failed fetch degrades to an empty portfolio, it never aborts the
// cycle.
func (c *Cycle) fetchPositions(ctx context.Context, result *types.CycleResult) []types.Position {
	if !c.includePortfolio {
		return nil
	}
	pf, err := c.trader.Portfolio(ctx)
	if err != nil {
		logger.Warn(ctx, "Failed to fetch portfolio, continuing without portfolio coins", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("portfolio fetch: %v", err))
		return nil
	}
	logger.Info(ctx, "Portfolio coins for analysis",
		"positions", pf.TotalPositions(), "min_balance", c.minBalance.String())
	return pf.Positions
}

// resolveUniverse fills canonical IDs. A ticker the resolver cannot
// match is dropped from the universe with its error recorded; transport
// failures keep the coin, analysis just runs without fundamentals.
func (c *Cycle) resolveUniverse(ctx context.Context, merged []types.CoinRef, result *types.CycleResult) []types.CoinRef {
	resolved := make([]types.CoinRef, 0, len(merged))
	for _, ref := range merged {
		id, err := c.resolver.Resolve(ctx, ref.Ticker)
		switch {
		case err == nil:
			ref.CanonicalID = id
		case errors.Is(err, fundamental.ErrUnresolvedTicker):
			logger.Warn(ctx, "Skipping unresolvable ticker", "ticker", ref.Ticker)
			result.Errors = append(result.Errors, fmt.Sprintf("resolve %s: %v", ref.Ticker, err))
			continue
		default:
			logger.Warn(ctx, "Resolver lookup failed, keeping coin without canonical ID",
				"ticker", ref.Ticker, "error", err)
		}
		resolved = append(resolved, ref)
	}
	return resolved
}

func (c *Cycle) runDecisionPhase(ctx context.Context, result *types.CycleResult, dryRun bool) (err error) {
	logger.Info(ctx, "Starting decision phase", "dry_run", dryRun)
	phaseStart := time.Now()
	defer func() {
		result.DecisionDuration = time.Since(phaseStart)
		if err != nil {
			logger.ErrorWithErr(ctx, "Decision phase failed", err)
			result.Errors = append(result.Errors, fmt.Sprintf("decision phase: %v", err))
		}
	}()

	summary, err := c.manager.RunCycle(ctx, dryRun)
	if err != nil {
		return err
	}

	result.DecisionsCount = summary.DecisionsGenerated
	result.DecisionsExecuted = summary.DecisionsExecuted
	result.ExecutionResults = summary.Results

	logger.Info(ctx, "Decision phase complete",
		"generated", result.DecisionsCount, "executed", result.DecisionsExecuted)
	return nil
}
