package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// SQLiteStore is the AnalysisStore backed by a local SQLite database.
// Rows carry the full record as JSON; indexed columns exist only for
// lookup and ordering.
type SQLiteStore struct {
	db *sql.DB
}

var _ interfaces.AnalysisStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			partition_key TEXT PRIMARY KEY,
			volume_rank INTEGER NOT NULL,
			analyzed_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a types.CoinAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (partition_key, volume_rank, analyzed_at, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(partition_key) DO UPDATE SET
		   volume_rank=excluded.volume_rank,
		   analyzed_at=excluded.analyzed_at,
		   payload=excluded.payload`,
		a.PartitionKey, a.VolumeRank, a.AnalyzedAt.Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveAnalyses(ctx context.Context, as []types.CoinAnalysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range as {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analyses (partition_key, volume_rank, analyzed_at, payload)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(partition_key) DO UPDATE SET
			   volume_rank=excluded.volume_rank,
			   analyzed_at=excluded.analyzed_at,
			   payload=excluded.payload`,
			a.PartitionKey, a.VolumeRank, a.AnalyzedAt.Unix(), payload,
		); err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Analyses(ctx context.Context) ([]types.CoinAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM analyses ORDER BY volume_rank ASC")
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []types.CoinAnalysis
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a types.CoinAnalysis
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PendingOutcomes filters on the payload because the outcome lives
// inside the JSON record, not in an indexed column.
func (s *SQLiteStore) PendingOutcomes(ctx context.Context, cutoff time.Time) ([]types.CoinAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM analyses WHERE analyzed_at <= ? ORDER BY volume_rank ASC", cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("query pending outcomes: %w", err)
	}
	defer rows.Close()

	var out []types.CoinAnalysis
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a types.CoinAnalysis
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		if a.Outcome == nil {
			out = append(out, a)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveOutcome(ctx context.Context, partitionKey string, o types.PredictionOutcome) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM analyses WHERE partition_key = ?", partitionKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no analysis for partition key %s", partitionKey)
	}
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}

	var a types.CoinAnalysis
	if err := json.Unmarshal(payload, &a); err != nil {
		return fmt.Errorf("decode analysis: %w", err)
	}
	a.Outcome = &o
	updated, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE analyses SET payload = ? WHERE partition_key = ?", updated, partitionKey); err != nil {
		return fmt.Errorf("update outcome: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveDecisionRecord(ctx context.Context, r types.DecisionRecord) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO decisions (created_at, payload) VALUES (?, ?)",
		r.Timestamp.Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert decision record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentDecisions(ctx context.Context, limit int) ([]types.DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM decisions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []types.DecisionRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r types.DecisionRecord
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode decision record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
