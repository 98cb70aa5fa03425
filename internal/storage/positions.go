package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/logger"
)

// PaperPositions tracks simulated holdings so paper runs still carry
// cost basis. Buys update a weighted-average entry price, sells reduce
// quantity and cost proportionally. State lives in one JSON file.
type PaperPositions struct {
	path  string
	mu    sync.Mutex
	state paperPositionsFile
}

// PaperPosition is one tracked simulated holding.
type PaperPosition struct {
	Coin          string          `json:"coin"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type paperPositionsFile struct {
	Positions   map[string]PaperPosition `json:"positions"`
	LastUpdated time.Time                `json:"last_updated"`
}

// OpenPaperPositions loads the tracker from path. A missing or corrupt
// file starts empty; it never fails open.
func OpenPaperPositions(path string) *PaperPositions {
	p := &PaperPositions{path: path}
	p.state.Positions = map[string]PaperPosition{}

	b, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	var f paperPositionsFile
	if err := json.Unmarshal(b, &f); err != nil || f.Positions == nil {
		logger.Warn(context.Background(), "Corrupt paper positions file, starting empty", "path", path)
		return p
	}
	p.state = f
	return p
}

// RecordFill applies one simulated fill. Failures to persist are
// logged, never propagated; the tracker must not block trading.
func (p *PaperPositions) RecordFill(ctx context.Context, coin, side string, qty, price decimal.Decimal) {
	if qty.IsZero() || price.IsZero() {
		return
	}
	coin = strings.ToUpper(coin)

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	pos, held := p.state.Positions[coin]

	switch strings.ToLower(side) {
	case "buy":
		if !held {
			pos = PaperPosition{Coin: coin, CreatedAt: now}
		}
		pos.TotalCost = pos.TotalCost.Add(qty.Mul(price))
		pos.Quantity = pos.Quantity.Add(qty)
		pos.AvgEntryPrice = pos.TotalCost.Div(pos.Quantity)
		pos.UpdatedAt = now
		p.state.Positions[coin] = pos
	case "sell":
		if !held {
			return
		}
		pos.Quantity = pos.Quantity.Sub(qty)
		if !pos.Quantity.IsPositive() {
			delete(p.state.Positions, coin)
			break
		}
		// cost leaves the position at the tracked average, the
		// realized side is the order log's concern
		pos.TotalCost = pos.AvgEntryPrice.Mul(pos.Quantity)
		pos.UpdatedAt = now
		p.state.Positions[coin] = pos
	default:
		return
	}

	p.state.LastUpdated = now
	if err := p.save(); err != nil {
		logger.Warn(ctx, "Could not persist paper positions", "error", err, "coin", coin)
	}
}

// AvgEntry returns the tracked average entry price for a coin.
func (p *PaperPositions) AvgEntry(coin string) (decimal.Decimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.state.Positions[strings.ToUpper(coin)]
	if !ok || pos.AvgEntryPrice.IsZero() {
		return decimal.Zero, false
	}
	return pos.AvgEntryPrice, true
}

// Position returns the tracked holding for a coin.
func (p *PaperPositions) Position(coin string) (PaperPosition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.state.Positions[strings.ToUpper(coin)]
	return pos, ok
}

func (p *PaperPositions) save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(p.path, p.state)
}
