package storage

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// PaperLog is the order audit trail: one JSONL file per day, with
// files older than the retention window compressed in place. Paper and
// live orders both land here so a cycle can be replayed afterwards.
type PaperLog struct {
	dir string
	mu  sync.Mutex
}

// OrderEntry is one logged order.
type OrderEntry struct {
	Time      string `json:"time"`
	OrderID   string `json:"order_id"`
	ClientOID string `json:"client_oid"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrderType string `json:"order_type"`
	Size      string `json:"size"`
	Price     string `json:"price,omitempty"`
	Status    string `json:"status"`
	Paper     bool   `json:"paper"`
	Error     string `json:"error,omitempty"`
}

func NewPaperLog(dir string) *PaperLog {
	if dir == "" {
		dir = "logs"
	}
	return &PaperLog{dir: dir}
}

func (l *PaperLog) dailyPath(t time.Time) string {
	return filepath.Join(l.dir, "orders", t.UTC().Format("2006-01-02")+".jsonl")
}

// RecordOrder appends the order to today's log. Failures are logged,
// never propagated; the audit trail must not block trading.
func (l *PaperLog) RecordOrder(ctx context.Context, res types.ExecutionResult, orderType, size, price string) {
	entry := OrderEntry{
		Time:      time.Now().UTC().Format(time.RFC3339),
		OrderID:   res.OrderID,
		ClientOID: res.ClientOrderID,
		Symbol:    res.Symbol,
		Side:      res.Side,
		OrderType: orderType,
		Size:      size,
		Price:     price,
		Status:    res.Status,
		Paper:     res.Paper,
		Error:     res.ErrorMessage,
	}
	if err := l.append(entry); err != nil {
		logger.Warn(ctx, "Could not write order log entry", "error", err, "symbol", res.Symbol)
	}
}

func (l *PaperLog) append(entry OrderEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.dailyPath(time.Now())
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files past the retention window, removing
// the originals. Zero or negative retention disables compression.
func (l *PaperLog) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			// already compressed on a previous run
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		return os.Remove(p)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
