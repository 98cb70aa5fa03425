package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/llm"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/resilience"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// Client talks to the DeepSeek chat API, which is OpenAI-compatible.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	policy    resilience.Policy
}

var _ interfaces.LLM = (*Client)(nil)

func NewClient(baseURL, model string, maxTokens int) (*Client, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY missing")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
		policy: resilience.Policy{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    20 * time.Second,
		},
	}, nil
}

func (c *Client) Name() string { return "deepseek/" + c.model }

// GenerateStructured sends the conversation in JSON mode. DeepSeek has
// no constrained decoding, so the schema is appended to the last user
// message instead.
func (c *Client) GenerateStructured(ctx context.Context, msgs []types.LLMMessage, schema json.RawMessage, temperature float32) (json.RawMessage, error) {
	ctx, span := trace.StartSpan(ctx, "deepseek-api-call")
	defer span.End()

	chatMsgs := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for i, m := range msgs {
		content := m.Content
		if i == len(msgs)-1 && m.Role == "user" && len(schema) > 0 {
			content += llm.SchemaInstruction(schema)
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var out json.RawMessage
	err := c.policy.Do(ctx, "deepseek chat", func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				if herr := resilience.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message); herr != nil {
					return fmt.Errorf("deepseek %s: %w", c.model, herr)
				}
			}
			return resilience.Transient(err)
		}
		if len(resp.Choices) == 0 {
			return resilience.Permanentf("deepseek returned no choices")
		}

		logger.Debug(ctx, "DeepSeek response received",
			"finish_reason", string(resp.Choices[0].FinishReason),
			"total_tokens", resp.Usage.TotalTokens)

		raw := llm.ExtractJSON(resp.Choices[0].Message.Content)
		if raw == nil {
			return resilience.Permanentf("deepseek output is not JSON")
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
