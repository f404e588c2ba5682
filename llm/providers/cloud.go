// Package providers implements generation backend adapters.
// Adapters are constructed with explicit configuration and injected into
// the llm.Client; they never read process state after construction.
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

// defaultCloudBaseURL is the hosted generation API endpoint.
const defaultCloudBaseURL = "https://generativelanguage.googleapis.com"

// CloudConfig holds the hosted API settings.
type CloudConfig struct {
	// APIKey authenticates against the hosted API. Required.
	APIKey string

	// BaseURL overrides the default API host, mainly for tests.
	BaseURL string
}

// Cloud implements the hosted generation API.
type Cloud struct {
	cfg CloudConfig
}

// NewCloud creates a cloud adapter with the given configuration.
func NewCloud(cfg CloudConfig) *Cloud {
	return &Cloud{cfg: cfg}
}

// Provider returns the backend identifier.
func (c *Cloud) Provider() model.Provider {
	return model.ProviderCloud
}

// BuildURL constructs the generateContent endpoint for the configured model.
func (c *Cloud) BuildURL(params model.Params) (string, error) {
	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultCloudBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, params.Model), nil
}

// SetHeaders adds the API key header. A missing key is a configuration
// error for this provider, not a transport failure.
func (c *Cloud) SetHeaders(req *http.Request) error {
	if c.cfg.APIKey == "" {
		return llm.NewConfigurationError(errors.New("cloud API key is not configured"))
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	return nil
}

// cloudRequest is the hosted API request format.
type cloudRequest struct {
	Contents         []cloudContent `json:"contents"`
	GenerationConfig cloudGenConfig `json:"generationConfig"`
}

type cloudContent struct {
	Role  string      `json:"role"`
	Parts []cloudPart `json:"parts"`
}

type cloudPart struct {
	Text string `json:"text"`
}

type cloudGenConfig struct {
	Temperature     float64              `json:"temperature"`
	MaxOutputTokens int                  `json:"maxOutputTokens"`
	TopP            float64              `json:"topP,omitempty"`
	TopK            int                  `json:"topK,omitempty"`
	ThinkingConfig  *cloudThinkingConfig `json:"thinkingConfig,omitempty"`
}

type cloudThinkingConfig struct {
	// ThinkingBudget bounds invisible reasoning tokens so the model cannot
	// spend the entire output budget deliberating and truncate the answer.
	ThinkingBudget int `json:"thinkingBudget"`
}

// BuildRequestBody creates the hosted API request body.
func (c *Cloud) BuildRequestBody(params model.Params, prompt string) ([]byte, error) {
	req := cloudRequest{
		Contents: []cloudContent{
			{Role: "user", Parts: []cloudPart{{Text: prompt}}},
		},
		GenerationConfig: cloudGenConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
			TopP:            params.TopP,
			TopK:            params.TopK,
		},
	}

	if params.ThinkingBudget > 0 {
		req.GenerationConfig.ThinkingConfig = &cloudThinkingConfig{
			ThinkingBudget: params.ThinkingBudget,
		}
	}

	return json.Marshal(req)
}

// cloudResponse is the hosted API response format.
type cloudResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion  string `json:"modelVersion"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// ParseResponse extracts the completion from a hosted API response.
func (c *Cloud) ParseResponse(body []byte) (*llm.Completion, error) {
	var resp cloudResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse cloud response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates in response")
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	if content.Len() == 0 {
		return nil, errors.New("missing completion content")
	}

	return &llm.Completion{
		Content: content.String(),
		Model:   resp.ModelVersion,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		FinishReason: resp.Candidates[0].FinishReason,
	}, nil
}
