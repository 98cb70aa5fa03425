package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnnyx/lumina-capital/internal/types"
)

func TestRecordOrderAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewPaperLog(dir)

	res := types.ExecutionResult{
		OrderID:       "paper_abc123",
		ClientOrderID: "oid-1",
		Symbol:        "BTCUSDT",
		Side:          "buy",
		Status:        "filled",
		Success:       true,
		Paper:         true,
	}
	l.RecordOrder(context.Background(), res, "market", "100", "")
	l.RecordOrder(context.Background(), res, "market", "50", "")

	path := filepath.Join(dir, "orders", time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var entries []OrderEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e OrderEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad jsonl line: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Symbol != "BTCUSDT" || !entries[0].Paper || entries[0].Size != "100" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestCompressOlderGzipsPastRetention(t *testing.T) {
	dir := t.TempDir()
	l := NewPaperLog(dir)

	ordersDir := filepath.Join(dir, "orders")
	if err := os.MkdirAll(ordersDir, 0o755); err != nil {
		t.Fatal(err)
	}

	old := filepath.Join(ordersDir, "2024-01-01.jsonl")
	if err := os.WriteFile(old, []byte(`{"symbol":"BTCUSDT"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(ordersDir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	if err := os.WriteFile(fresh, []byte(`{"symbol":"ETHUSDT"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := l.CompressOlder(7); err != nil {
		t.Fatalf("compress: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old log should be removed after compression")
	}
	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("expected gzip alongside old log: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh log must be untouched: %v", err)
	}
}

func TestCompressOlderDisabledRetention(t *testing.T) {
	l := NewPaperLog(t.TempDir())
	if err := l.CompressOlder(0); err != nil {
		t.Fatalf("zero retention should be a no-op: %v", err)
	}
}
