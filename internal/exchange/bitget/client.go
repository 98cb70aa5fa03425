package bitget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/resilience"
)

const codeOK = "00000"

// APIError is a Bitget error envelope with a non-success code.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitget api error [%s]: %s", e.Code, e.Message)
}

// envelope is the wrapper around every Bitget v2 response.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Client is a signed HTTP client for the Bitget Spot API v2.
type Client struct {
	baseURL string
	creds   Credentials
	httpc   *http.Client
	caller  *resilience.Caller
}

func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		caller:  resilience.NewCaller("bitget", resilience.DefaultPolicy()),
	}
}

// Get issues a GET request; the query string is part of the signed path.
func (c *Client) Get(ctx context.Context, path string, params url.Values, authenticated bool, out any) error {
	requestPath := path
	if len(params) > 0 {
		requestPath += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, requestPath, "", authenticated, out)
}

// Post issues a signed POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload any, out any) error {
	var body string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return resilience.Permanent(err)
		}
		body = string(b)
	}
	return c.do(ctx, http.MethodPost, path, body, true, out)
}

func (c *Client) do(ctx context.Context, method, requestPath, body string, authenticated bool, out any) error {
	return c.caller.Do(ctx, "bitget "+method+" "+requestPath, func(ctx context.Context) error {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewReader([]byte(body))
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, reader)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("locale", "en-US")
		if authenticated {
			ts := timestampMillis()
			req.Header.Set("ACCESS-KEY", c.creds.AccessKey)
			req.Header.Set("ACCESS-SIGN", sign(c.creds.SecretKey, ts, method, requestPath, body))
			req.Header.Set("ACCESS-TIMESTAMP", ts)
			req.Header.Set("ACCESS-PASSPHRASE", c.creds.Passphrase)
		}

		logger.Debug(ctx, "Bitget request", "method", method, "path", requestPath, "authenticated", authenticated)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return resilience.Transient(err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return resilience.Transient(err)
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			if herr := resilience.FromHTTPStatus(resp.StatusCode, string(raw)); herr != nil {
				return fmt.Errorf("bitget %s: %w", requestPath, herr)
			}
			return resilience.Permanentf("bitget %s: decode: %v", requestPath, err)
		}
		if env.Code != codeOK {
			apiErr := &APIError{Code: env.Code, Message: env.Msg}
			if herr := resilience.FromHTTPStatus(resp.StatusCode, apiErr.Error()); herr != nil && resilience.IsTransient(herr) {
				return resilience.Transient(apiErr)
			}
			return resilience.Permanent(apiErr)
		}

		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return resilience.Permanentf("bitget %s: decode data: %v", requestPath, err)
			}
		}
		return nil
	})
}
