// Package model defines generation tiers, provider identifiers, and the
// per-tier sampling parameters used when calling a generation backend.
// Callers specify a tier (premium, standard) and the selector resolves it
// to a concrete model and sampling configuration.
package model

// Tier represents a named generation-quality level.
// Premium maps to a higher-capability model with a larger output budget;
// Standard maps to a faster, cheaper model.
type Tier string

const (
	// TierPremium is the high-capability, quota-gated tier.
	TierPremium Tier = "premium"

	// TierStandard is the default tier, always available.
	TierStandard Tier = "standard"
)

// IsValid checks if a tier string is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierPremium, TierStandard:
		return true
	}
	return false
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// ParseTier converts a string to a Tier, returning empty for invalid values.
func ParseTier(s string) Tier {
	t := Tier(s)
	if t.IsValid() {
		return t
	}
	return ""
}

// Provider identifies a concrete generation backend.
type Provider string

const (
	// ProviderCloud is the hosted completion API.
	ProviderCloud Provider = "cloud"

	// ProviderSelfHosted is an OpenAI-compatible server reachable over HTTP.
	ProviderSelfHosted Provider = "selfhosted"
)

// IsValid checks if a provider string is a known provider.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderCloud, ProviderSelfHosted:
		return true
	}
	return false
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a string to a Provider, returning empty for invalid values.
func ParseProvider(s string) Provider {
	p := Provider(s)
	if p.IsValid() {
		return p
	}
	return ""
}

// Alternate returns the other provider, used for cross-provider fallback.
func (p Provider) Alternate() Provider {
	if p == ProviderCloud {
		return ProviderSelfHosted
	}
	return ProviderCloud
}
