// Package llm provides a provider-agnostic generation client and the
// response parser that coerces raw model output into validated payloads.
// The client performs exactly one attempt per call; retries and fallback
// ordering belong to the orchestrator.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/clinscribe/clinscribe/model"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// defaultTimeout bounds a single provider call so the transport never
// hangs indefinitely. A timeout is treated like any other transport failure.
const defaultTimeout = 120 * time.Second

// Client sends fully-assembled prompts to a configured set of providers.
type Client struct {
	adapters   map[model.Provider]Adapter
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a client over the given adapters.
func NewClient(adapters []Adapter, opts ...ClientOption) *Client {
	c := &Client{
		adapters: make(map[model.Provider]Adapter, len(adapters)),
		timeout:  defaultTimeout,
		httpClient: &http.Client{
			Timeout: 180 * time.Second, // Hard ceiling behind the per-call timeout
		},
		logger: slog.Default(),
	}

	for _, a := range adapters {
		c.adapters[a.Provider()] = a
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Invoke sends one generation request to the named provider.
// The system prompt and user content are composed with the persona preamble
// before transmission. Exactly one HTTP attempt is made.
func (c *Client) Invoke(ctx context.Context, provider model.Provider, params model.Params, systemPrompt, userContent string) (*Completion, error) {
	adapter, ok := c.adapters[provider]
	if !ok {
		return nil, NewConfigurationError(fmt.Errorf("no adapter configured for provider %s", provider))
	}

	url, err := adapter.BuildURL(params)
	if err != nil {
		return nil, err
	}

	prompt := ComposePrompt(systemPrompt, userContent)

	body, err := adapter.BuildRequestBody(params, prompt)
	if err != nil {
		return nil, NewConfigurationError(fmt.Errorf("build request body: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("Sending generation request",
		"provider", provider,
		"model", params.Model,
		"url", url)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewConfigurationError(fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if err := adapter.SetHeaders(httpReq); err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts and network errors are equivalent for fallback purposes
		return nil, NewTransportError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransportError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, NewTransportError(httpStatusError(httpResp.StatusCode, respBody))
	}

	completion, err := adapter.ParseResponse(respBody)
	if err != nil {
		return nil, NewTransportError(fmt.Errorf("provider %s: %w", provider, err))
	}

	return completion, nil
}

// httpStatusError formats a non-success HTTP response with a bounded body excerpt.
func httpStatusError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}
	return fmt.Errorf("provider API error (status %d): %s", statusCode, bodyStr)
}
