package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clinscribe/clinscribe/llm"
	"github.com/clinscribe/clinscribe/model"
)

// SelfHostedConfig holds settings for an OpenAI-compatible server
// (Ollama, vLLM, or similar) reachable over plain HTTP.
type SelfHostedConfig struct {
	// BaseURL is the server address. Required; its absence is a
	// configuration error, not a transport failure.
	BaseURL string

	// Model overrides the tier's model name, since a self-hosted server
	// typically serves its own model set. Empty uses the tier's model.
	Model string

	// GatewayClientID and GatewayClientSecret are access-gateway
	// credentials. Headers are attached only when both are set.
	GatewayClientID     string
	GatewayClientSecret string
}

// SelfHosted implements the OpenAI-compatible chat completions API.
type SelfHosted struct {
	cfg SelfHostedConfig
}

// NewSelfHosted creates a self-hosted adapter with the given configuration.
func NewSelfHosted(cfg SelfHostedConfig) *SelfHosted {
	return &SelfHosted{cfg: cfg}
}

// Provider returns the backend identifier.
func (s *SelfHosted) Provider() model.Provider {
	return model.ProviderSelfHosted
}

// BuildURL constructs the chat completions endpoint.
func (s *SelfHosted) BuildURL(_ model.Params) (string, error) {
	if s.cfg.BaseURL == "" {
		return "", llm.NewConfigurationError(errors.New("self-hosted base URL is not configured"))
	}

	baseURL := strings.TrimSuffix(s.cfg.BaseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL, nil
	}
	return baseURL + "/chat/completions", nil
}

// SetHeaders attaches access-gateway credentials when both are configured.
func (s *SelfHosted) SetHeaders(req *http.Request) error {
	if s.cfg.GatewayClientID != "" && s.cfg.GatewayClientSecret != "" {
		req.Header.Set("CF-Access-Client-Id", s.cfg.GatewayClientID)
		req.Header.Set("CF-Access-Client-Secret", s.cfg.GatewayClientSecret)
	}
	return nil
}

// openAIRequest is the OpenAI-compatible request format.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	TopP        float64         `json:"top_p,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequestBody creates the OpenAI-compatible request body.
func (s *SelfHosted) BuildRequestBody(params model.Params, prompt string) ([]byte, error) {
	modelName := s.cfg.Model
	if modelName == "" {
		modelName = params.Model
	}

	req := openAIRequest{
		Model: modelName,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}

	if params.MaxTokens > 0 {
		req.MaxTokens = &params.MaxTokens
	}

	return json.Marshal(req)
}

// openAIResponse is the OpenAI-compatible response format.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ParseResponse extracts the completion from an OpenAI-compatible response.
func (s *SelfHosted) ParseResponse(body []byte) (*llm.Completion, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse self-hosted response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	if resp.Choices[0].Message.Content == "" {
		return nil, errors.New("missing completion content")
	}

	return &llm.Completion{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}
