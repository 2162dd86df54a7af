package llm

import (
	"fmt"
	"strings"
)

// Profile holds the credentials for one provider account.
type Profile struct {
	ID       string `json:"id"`
	Provider string `json:"provider"` // "anthropic", "openai"
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ProviderFactory creates model providers
type ProviderFactory struct{}

// NewProvider creates a provider based on the profile
func (f *ProviderFactory) NewProvider(profile Profile) (Provider, error) {
	if strings.TrimSpace(profile.APIKey) == "" {
		return nil, fmt.Errorf("profile %q has no api key", profile.ID)
	}

	switch profile.Provider {
	case "anthropic":
		return NewAnthropicProvider(profile.APIKey, profile.BaseURL), nil
	case "openai":
		return NewOpenAIProvider(profile.APIKey, profile.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", profile.Provider)
	}
}
