package interfaces

import (
	"context"
	"encoding/json"

	"github.com/vnnyx/lumina-capital/internal/types"
)

// LLM is a chat-completion port returning structured JSON output.
type LLM interface {
	// GenerateStructured sends the conversation and returns the raw JSON
	// object produced by the model. schema is advisory; providers that
	// support constrained decoding pass it through, others embed it in
	// the prompt.
	GenerateStructured(ctx context.Context, msgs []types.LLMMessage, schema json.RawMessage, temperature float32) (json.RawMessage, error)
	// Name identifies the provider/model for logging.
	Name() string
}
