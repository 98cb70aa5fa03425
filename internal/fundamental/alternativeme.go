package fundamental

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/resilience"
	"github.com/vnnyx/lumina-capital/internal/types"
)

// AlternativeMeClient fetches the Fear & Greed Index. The API is free
// with no authentication.
type AlternativeMeClient struct {
	baseURL string
	httpc   *http.Client
	caller  *resilience.Caller
}

func NewAlternativeMeClient(baseURL string) *AlternativeMeClient {
	return &AlternativeMeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		caller:  resilience.NewCaller("alternative.me", resilience.DefaultPolicy()),
	}
}

type fngRow struct {
	Value          string `json:"value"`
	Classification string `json:"value_classification"`
	Timestamp      string `json:"timestamp"`
}

// FearGreed fetches the current index value.
func (c *AlternativeMeClient) FearGreed(ctx context.Context) (*types.FearGreed, error) {
	rows, err := c.fetch(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fear & greed: empty response")
	}
	return rowToFearGreed(rows[0]), nil
}

// Historical fetches the last days of index values, newest first.
func (c *AlternativeMeClient) Historical(ctx context.Context, days int) ([]types.FearGreed, error) {
	rows, err := c.fetch(ctx, days)
	if err != nil {
		return nil, err
	}
	out := make([]types.FearGreed, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToFearGreed(r))
	}
	return out, nil
}

func rowToFearGreed(r fngRow) *types.FearGreed {
	value, _ := strconv.Atoi(r.Value)
	ts, _ := strconv.ParseInt(r.Timestamp, 10, 64)
	label := r.Classification
	if label == "" {
		label = "Neutral"
	}
	return &types.FearGreed{
		Value:     value,
		Label:     label,
		Timestamp: time.Unix(ts, 0),
	}
}

func (c *AlternativeMeClient) fetch(ctx context.Context, limit int) ([]fngRow, error) {
	var rows []fngRow
	err := c.caller.Do(ctx, "alternative.me/fng", func(ctx context.Context) error {
		u := fmt.Sprintf("%s/fng/?limit=%d", c.baseURL, limit)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return resilience.Permanent(err)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return resilience.Transient(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resilience.Transient(err)
		}
		if herr := resilience.FromHTTPStatus(resp.StatusCode, string(body)); herr != nil {
			return fmt.Errorf("fear & greed: %w", herr)
		}

		var out struct {
			Data []fngRow `json:"data"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return resilience.Permanentf("fear & greed: decode: %v", err)
		}
		rows = out.Data
		return nil
	})
	return rows, err
}
