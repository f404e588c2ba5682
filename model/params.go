package model

import "sync"

// Params holds the generation configuration for one tier.
type Params struct {
	// Model is the model identifier sent to the provider.
	Model string `json:"model" yaml:"model"`

	// Temperature controls randomness. Lower is more deterministic.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens limits the visible output length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// TopP is the nucleus sampling parameter.
	TopP float64 `json:"top_p" yaml:"top_p"`

	// TopK limits sampling to the K most likely tokens.
	TopK int `json:"top_k" yaml:"top_k"`

	// ThinkingBudget bounds invisible reasoning tokens so the model cannot
	// consume the whole output budget on deliberation and truncate the
	// visible answer. Zero disables the budget; only the premium tier sets it.
	ThinkingBudget int `json:"thinking_budget,omitempty" yaml:"thinking_budget,omitempty"`
}

// Selector resolves tiers to generation parameters.
// It is a pure lookup table with no failure mode: unknown tiers
// resolve to the standard configuration.
type Selector struct {
	mu     sync.RWMutex
	params map[Tier]Params
}

// NewSelector creates a selector with the given per-tier parameters.
// Tiers missing from the map fall back to the built-in defaults.
func NewSelector(params map[Tier]Params) *Selector {
	merged := defaultParams()
	for t, p := range params {
		if t.IsValid() {
			merged[t] = p
		}
	}
	return &Selector{params: merged}
}

// DefaultSelector creates a selector with the built-in tier table.
func DefaultSelector() *Selector {
	return &Selector{params: defaultParams()}
}

func defaultParams() map[Tier]Params {
	return map[Tier]Params{
		TierPremium: {
			Model:          "gemini-2.5-pro",
			Temperature:    0.2,
			MaxTokens:      8192,
			TopP:           0.95,
			TopK:           40,
			ThinkingBudget: 2048,
		},
		TierStandard: {
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
			MaxTokens:   4096,
			TopP:        0.95,
			TopK:        40,
		},
	}
}

// ForTier returns the generation parameters for a tier.
func (s *Selector) ForTier(t Tier) Params {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.params[t]; ok {
		return p
	}
	return s.params[TierStandard]
}

// SetTier updates the parameters for a tier.
func (s *Selector) SetTier(t Tier, p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.params == nil {
		s.params = defaultParams()
	}
	s.params[t] = p
}
