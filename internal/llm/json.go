package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls the first JSON object out of model output. Models
// routinely wrap JSON in markdown fences or surrounding prose; this
// strips both. Returns nil when no valid object can be found.
func ExtractJSON(text string) json.RawMessage {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		if i := strings.LastIndex(t, "```"); i >= 0 {
			t = t[:i]
		}
		t = strings.TrimSpace(t)
	}

	if json.Valid([]byte(t)) && strings.HasPrefix(t, "{") {
		return json.RawMessage(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		sub := t[start : end+1]
		if json.Valid([]byte(sub)) {
			return json.RawMessage(sub)
		}
	}
	return nil
}

// SchemaInstruction renders the suffix appended to prompts for
// providers without constrained decoding.
func SchemaInstruction(schema json.RawMessage) string {
	if len(schema) == 0 {
		return "\n\nRespond ONLY with a compact JSON object."
	}
	return "\n\nRespond ONLY with a compact JSON object matching this schema:\n" + string(schema)
}
