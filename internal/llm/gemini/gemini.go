package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/llm"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/resilience"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// Client calls the Gemini generateContent API with JSON-constrained
// output. Transient API errors (429, 5xx, "overloaded", "rate limit")
// are retried with exponential backoff.
type Client struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	httpc     *http.Client
	policy    resilience.Policy
}

var _ interfaces.LLM = (*Client)(nil)

func NewClient(model string, maxTokens int) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY missing")
	}
	endpoint := defaultEndpoint
	if ep := os.Getenv("GEMINI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	policy := resilience.Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    20 * time.Second,
	}
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		httpc:     &http.Client{Timeout: 120 * time.Second},
		policy:    policy,
	}, nil
}

func (c *Client) Name() string { return "gemini/" + c.model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float32         `json:"temperature"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// GenerateStructured sends the conversation and returns the JSON object
// the model produced. The schema is passed through responseSchema.
func (c *Client) GenerateStructured(ctx context.Context, msgs []types.LLMMessage, schema json.RawMessage, temperature float32) (json.RawMessage, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	req := generateRequest{
		GenerationConfig: generationConfig{
			Temperature:      temperature,
			MaxOutputTokens:  c.maxTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	for _, m := range msgs {
		switch m.Role {
		case "system":
			req.SystemInstruction = &content{Parts: []part{{Text: m.Content}}}
		case "assistant":
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	var out json.RawMessage
	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	err = c.policy.Do(ctx, "gemini generateContent", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpc.Do(httpReq)
		if err != nil {
			return resilience.Transient(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return resilience.Transient(err)
		}
		if herr := resilience.FromHTTPStatus(resp.StatusCode, string(respBody)); herr != nil {
			return fmt.Errorf("gemini %s: %w", c.model, herr)
		}

		var gr generateResponse
		if err := json.Unmarshal(respBody, &gr); err != nil {
			return resilience.Permanentf("gemini decode: %v", err)
		}
		if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
			return resilience.Permanentf("gemini returned no candidates")
		}

		text := gr.Candidates[0].Content.Parts[0].Text
		logger.Debug(ctx, "Gemini response received",
			"finish_reason", gr.Candidates[0].FinishReason,
			"total_tokens", gr.UsageMetadata.TotalTokenCount)

		raw := llm.ExtractJSON(text)
		if raw == nil {
			return resilience.Permanentf("gemini output is not JSON")
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
