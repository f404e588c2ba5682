package llm

import (
	"net/http"

	"github.com/clinscribe/clinscribe/model"
)

// Adapter defines the interface for generation provider implementations.
// Adapters are constructed once at process start with their configuration
// and passed into the client by reference; they hold no mutable state.
type Adapter interface {
	// Provider returns the backend this adapter talks to.
	Provider() model.Provider

	// BuildURL constructs the full API endpoint URL for the given parameters.
	// Returns a ConfigurationError if a required base URL is missing.
	BuildURL(params model.Params) (string, error)

	// SetHeaders adds provider-specific headers to the request.
	// Returns a ConfigurationError if a required credential is missing.
	SetHeaders(req *http.Request) error

	// BuildRequestBody creates the JSON request body for the provider.
	BuildRequestBody(params model.Params, prompt string) ([]byte, error)

	// ParseResponse extracts the completion from provider-specific JSON.
	ParseResponse(body []byte) (*Completion, error)
}

// TokenUsage reports token consumption for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the raw result of one provider call.
type Completion struct {
	// Content is the generated text, unparsed.
	Content string

	// Model is the backend-reported model identifier.
	Model string

	// Usage contains token consumption metrics when the backend reports them.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string
}
