package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPaperPositionsWeightedAverageBuys(t *testing.T) {
	p := OpenPaperPositions(filepath.Join(t.TempDir(), "positions.json"))
	ctx := context.Background()

	p.RecordFill(ctx, "btc", "buy", dec("0.3"), dec("20000"))
	p.RecordFill(ctx, "BTC", "buy", dec("0.3"), dec("30000"))

	avg, ok := p.AvgEntry("BTC")
	if !ok {
		t.Fatal("expected a tracked entry price")
	}
	if avg.String() != "25000" {
		t.Errorf("expected weighted avg 25000, got %s", avg)
	}
	pos, _ := p.Position("BTC")
	if pos.Quantity.String() != "0.6" || pos.TotalCost.String() != "15000" {
		t.Errorf("unexpected position: %+v", pos)
	}
}

func TestPaperPositionsSellReducesAtAverage(t *testing.T) {
	p := OpenPaperPositions(filepath.Join(t.TempDir(), "positions.json"))
	ctx := context.Background()

	p.RecordFill(ctx, "ETH", "buy", dec("4"), dec("2000"))
	// selling above the average must not move the entry price
	p.RecordFill(ctx, "ETH", "sell", dec("1"), dec("2500"))

	pos, ok := p.Position("ETH")
	if !ok {
		t.Fatal("position should survive a partial sell")
	}
	if pos.Quantity.String() != "3" {
		t.Errorf("expected quantity 3, got %s", pos.Quantity)
	}
	if pos.AvgEntryPrice.String() != "2000" {
		t.Errorf("expected entry price unchanged, got %s", pos.AvgEntryPrice)
	}
	if pos.TotalCost.String() != "6000" {
		t.Errorf("expected cost 6000, got %s", pos.TotalCost)
	}
}

func TestPaperPositionsFullSellClosesPosition(t *testing.T) {
	p := OpenPaperPositions(filepath.Join(t.TempDir(), "positions.json"))
	ctx := context.Background()

	p.RecordFill(ctx, "SOL", "buy", dec("10"), dec("100"))
	p.RecordFill(ctx, "SOL", "sell", dec("10"), dec("120"))

	if _, ok := p.Position("SOL"); ok {
		t.Error("fully sold position should be removed")
	}
	if _, ok := p.AvgEntry("SOL"); ok {
		t.Error("closed position must not report an entry price")
	}

	// a sell for an untracked coin is ignored
	p.RecordFill(ctx, "XRP", "sell", dec("5"), dec("1"))
	if _, ok := p.Position("XRP"); ok {
		t.Error("sell without a position must not create one")
	}
}

func TestPaperPositionsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	ctx := context.Background()

	p := OpenPaperPositions(path)
	p.RecordFill(ctx, "BTC", "buy", dec("0.5"), dec("40000"))

	reopened := OpenPaperPositions(path)
	avg, ok := reopened.AvgEntry("BTC")
	if !ok || avg.String() != "40000" {
		t.Errorf("expected persisted entry 40000, got %s, %v", avg, ok)
	}
}

func TestPaperPositionsCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := OpenPaperPositions(path)
	if _, ok := p.AvgEntry("BTC"); ok {
		t.Error("corrupt file should start the tracker empty")
	}
	p.RecordFill(context.Background(), "BTC", "buy", dec("1"), dec("100"))
	if avg, ok := p.AvgEntry("BTC"); !ok || avg.String() != "100" {
		t.Errorf("tracker should keep working after corrupt open, got %s, %v", avg, ok)
	}
}
