package fundamental

import (
	"context"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// NoNews is the placeholder headline provider. A CryptoPanic-backed
// implementation needs an API key; until one is configured the cycle
// runs without headlines.
type NoNews struct{}

func (NoNews) Headlines(ctx context.Context, tickers []string, limit int) ([]types.NewsItem, error) {
	return nil, nil
}
