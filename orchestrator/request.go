package orchestrator

import (
	"github.com/clinscribe/clinscribe/model"
)

// GenerationRequest describes one generation call. It is constructed per
// call and never outlives the orchestration that consumes it.
type GenerationRequest struct {
	// Content is the free-text material to transform.
	Content string

	// SystemPrompt carries the feature's instructions (report drafting,
	// auditing, eligibility assessment, chat). Prompt wording is the
	// caller's concern.
	SystemPrompt string

	// DocType tags the document type or feature, and keys both the quota
	// window and the cache.
	DocType string

	// UserID identifies the caller for quota purposes. Empty means
	// anonymous; anonymous requests are never premium-eligible.
	UserID string

	// Tier is the requested generation tier.
	Tier model.Tier

	// WantsJSON requests a structured payload; the response parser then
	// validates and repairs the model output.
	WantsJSON bool

	// PreferredProvider is attempted first at every tier.
	PreferredProvider model.Provider

	// AllowFallback permits retrying the standard tier on the alternate
	// provider after the preferred provider fails.
	AllowFallback bool

	// UseCache enables the content-addressed cache for this call.
	// A cache hit bypasses quota checks and provider calls entirely.
	UseCache bool

	// RetryOnParseFailure lets fallback continue past an unparseable
	// response. By default a malformed response at one (tier, provider)
	// is assumed likely to recur and is returned immediately.
	RetryOnParseFailure bool
}

// ErrorKind classifies a failed generation for the caller.
type ErrorKind string

const (
	// ErrorKindTransport covers non-success HTTP status, network failure,
	// or timeout talking to a provider.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindConfiguration covers a missing credential or endpoint URL.
	ErrorKindConfiguration ErrorKind = "configuration"

	// ErrorKindParse covers model output that survived transport but could
	// not be coerced into the expected structured shape.
	ErrorKindParse ErrorKind = "parse"
)

// GenerationResult is the single shape every orchestration exit produces:
// cache hit, successful generation, or exhausted fallback.
type GenerationResult struct {
	// Success reports whether a usable payload was produced.
	Success bool `json:"success"`

	// Payload is the validated result: trimmed prose, or validated JSON
	// text when the request wanted JSON.
	Payload string `json:"payload,omitempty"`

	// Model is the backend-reported model identifier.
	Model string `json:"model,omitempty"`

	// Provider is the backend that served the request.
	Provider model.Provider `json:"provider,omitempty"`

	// Tier is the tier that actually served the request, which may be
	// lower than the tier requested.
	Tier model.Tier `json:"tier,omitempty"`

	// Cached reports whether the payload came from the response cache.
	Cached bool `json:"cached"`

	// RequestID correlates this call across logs.
	RequestID string `json:"request_id"`

	// ErrorKind is set when Success is false.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}
