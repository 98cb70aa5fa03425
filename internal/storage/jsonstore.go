package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// JSONStore persists analyses and decision records in flat JSON files
// next to each other: analyses keyed by partition key, decisions as an
// append-only list. Writes go through a temp file and rename so a crash
// never leaves a partial file.
type JSONStore struct {
	analysesPath  string
	decisionsPath string
	mu            sync.Mutex
}

var _ interfaces.AnalysisStore = (*JSONStore)(nil)

type analysesFile struct {
	Analyses map[string]types.CoinAnalysis `json:"analyses"`
}

type decisionsFile struct {
	Decisions []types.DecisionRecord `json:"decisions"`
}

func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &JSONStore{
		analysesPath:  path,
		decisionsPath: filepath.Join(filepath.Dir(path), "trade_decisions.json"),
	}
	return s, nil
}

func (s *JSONStore) SaveAnalysis(ctx context.Context, a types.CoinAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f analysesFile
	s.readFile(ctx, s.analysesPath, &f)
	if f.Analyses == nil {
		f.Analyses = map[string]types.CoinAnalysis{}
	}
	f.Analyses[a.PartitionKey] = a
	return writeFileAtomic(s.analysesPath, f)
}

func (s *JSONStore) SaveAnalyses(ctx context.Context, as []types.CoinAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f analysesFile
	s.readFile(ctx, s.analysesPath, &f)
	if f.Analyses == nil {
		f.Analyses = map[string]types.CoinAnalysis{}
	}
	for _, a := range as {
		f.Analyses[a.PartitionKey] = a
	}
	return writeFileAtomic(s.analysesPath, f)
}

func (s *JSONStore) Analyses(ctx context.Context) ([]types.CoinAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f analysesFile
	s.readFile(ctx, s.analysesPath, &f)

	out := make([]types.CoinAnalysis, 0, len(f.Analyses))
	for _, a := range f.Analyses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VolumeRank < out[j].VolumeRank })
	return out, nil
}

func (s *JSONStore) PendingOutcomes(ctx context.Context, cutoff time.Time) ([]types.CoinAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f analysesFile
	s.readFile(ctx, s.analysesPath, &f)

	var out []types.CoinAnalysis
	for _, a := range f.Analyses {
		if a.Outcome == nil && !a.AnalyzedAt.After(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VolumeRank < out[j].VolumeRank })
	return out, nil
}

func (s *JSONStore) SaveOutcome(ctx context.Context, partitionKey string, o types.PredictionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f analysesFile
	s.readFile(ctx, s.analysesPath, &f)

	a, ok := f.Analyses[partitionKey]
	if !ok {
		return fmt.Errorf("no analysis for partition key %s", partitionKey)
	}
	a.Outcome = &o
	f.Analyses[partitionKey] = a
	return writeFileAtomic(s.analysesPath, f)
}

func (s *JSONStore) SaveDecisionRecord(ctx context.Context, r types.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f decisionsFile
	s.readFile(ctx, s.decisionsPath, &f)
	f.Decisions = append(f.Decisions, r)
	return writeFileAtomic(s.decisionsPath, f)
}

func (s *JSONStore) RecentDecisions(ctx context.Context, limit int) ([]types.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f decisionsFile
	s.readFile(ctx, s.decisionsPath, &f)

	records := f.Decisions
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.After(records[j].Timestamp) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *JSONStore) Close() error { return nil }

// readFile loads a store file, treating missing or corrupt files as
// empty so one bad write never bricks the store.
func (s *JSONStore) readFile(ctx context.Context, path string, v any) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "Could not read store file, starting empty", "path", path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(b, v); err != nil {
		logger.Warn(ctx, "Corrupt store file, starting empty", "path", path, "error", err)
	}
}

func writeFileAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
