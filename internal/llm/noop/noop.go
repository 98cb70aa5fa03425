package noop

import (
	"context"
	"encoding/json"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// Client is a fallback LLM used when no provider is configured. It
// always returns an empty JSON object, which downstream parsers treat
// as "no insight" / "no decisions".
type Client struct{}

var _ interfaces.LLM = Client{}

func NewClient() Client { return Client{} }

func (Client) Name() string { return "noop" }

func (Client) GenerateStructured(ctx context.Context, msgs []types.LLMMessage, schema json.RawMessage, temperature float32) (json.RawMessage, error) {
	logger.Debug(ctx, "Noop LLM called - returning empty object", "messages", len(msgs))
	return json.RawMessage(`{}`), nil
}
