package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnnyx/lumina-capital/internal/types"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "analyses.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	in := []types.CoinAnalysis{
		analysis("ETH", "Ethereum", 2),
		analysis("BTC", "Bitcoin", 1),
	}
	if err := s.SaveAnalyses(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Analyses(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].Ticker != "BTC" {
		t.Errorf("expected volume-rank order, got %s first", got[0].Ticker)
	}
	if got[0].Insight.Trend != "up" {
		t.Errorf("insight did not survive round trip: %+v", got[0].Insight)
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	a := analysis("BTC", "Bitcoin", 1)
	if err := s.SaveAnalysis(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Insight.Momentum = "weak"
	if err := s.SaveAnalysis(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, err := s.Analyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(got))
	}
	if got[0].Insight.Momentum != "weak" {
		t.Errorf("expected updated momentum, got %s", got[0].Insight.Momentum)
	}
}

func TestSQLiteStoreRecentDecisions(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		rec := types.DecisionRecord{
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
			MarketAssessment: []string{"a", "b", "c"}[i],
		}
		if err := s.SaveDecisionRecord(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	got, err := s.RecentDecisions(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].MarketAssessment != "c" || got[1].MarketAssessment != "b" {
		t.Errorf("expected newest first, got %s, %s", got[0].MarketAssessment, got[1].MarketAssessment)
	}
}

func TestSQLiteStorePendingOutcomes(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := analysis("BTC", "Bitcoin", 1)
	old.AnalyzedAt = now.Add(-6 * time.Hour)
	fresh := analysis("ETH", "Ethereum", 2)
	fresh.AnalyzedAt = now.Add(-time.Hour)
	if err := s.SaveAnalyses(ctx, []types.CoinAnalysis{old, fresh}); err != nil {
		t.Fatalf("save: %v", err)
	}

	pending, err := s.PendingOutcomes(ctx, now.Add(-4*time.Hour))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Ticker != "BTC" {
		t.Fatalf("expected only the aged BTC analysis, got %v", pending)
	}

	if err := s.SaveOutcome(ctx, old.PartitionKey, types.PredictionOutcome{
		ActualPrice: "31000",
		Label:       "correct",
		RecordedAt:  now,
	}); err != nil {
		t.Fatalf("save outcome: %v", err)
	}

	pending, err = s.PendingOutcomes(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range pending {
		if a.Ticker == "BTC" {
			t.Error("scored analysis must leave the pending set")
		}
	}

	got, err := s.Analyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range got {
		if a.Ticker == "BTC" && (a.Outcome == nil || a.Outcome.Label != "correct") {
			t.Errorf("outcome not persisted: %+v", a.Outcome)
		}
	}

	if err := s.SaveOutcome(ctx, "no-such-key", types.PredictionOutcome{}); err == nil {
		t.Error("expected an error for an unknown partition key")
	}
}

func TestSQLiteStoreDefaultsZeroTimestamp(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	if err := s.SaveDecisionRecord(ctx, types.DecisionRecord{MarketAssessment: "x"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.RecentDecisions(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Error("zero timestamp should be defaulted on save")
	}
}
