package llmobs

import (
	"context"
	"encoding/json"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// observableLLM wraps an LLM with observability (logging & tracing)
type observableLLM struct {
	llm interfaces.LLM
}

// Compile-time interface check
var _ interfaces.LLM = (*observableLLM)(nil)

// Wrap wraps an LLM provider with observability middleware
func Wrap(llm interfaces.LLM) interfaces.LLM {
	return &observableLLM{llm: llm}
}

func (ol *observableLLM) Name() string { return ol.llm.Name() }

func (ol *observableLLM) GenerateStructured(ctx context.Context, msgs []types.LLMMessage, schema json.RawMessage, temperature float32) (json.RawMessage, error) {
	ctx, span := trace.StartSpan(ctx, "llm.GenerateStructured")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting structured completion",
		"provider", ol.llm.Name(),
		"messages", len(msgs),
		"temperature", temperature,
	)

	out, err := ol.llm.GenerateStructured(ctx, msgs, schema, temperature)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "LLM request failed", err, "provider", ol.llm.Name())
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Structured completion received",
		"provider", ol.llm.Name(),
		"bytes", len(out),
	)
	return out, nil
}
