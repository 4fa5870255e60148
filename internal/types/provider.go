package types

// ProviderID identifies one of the fixed set of generation backends.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
	ProviderOllama    ProviderID = "ollama"
)

// KnownProviders returns every provider identifier known at startup.
func KnownProviders() []ProviderID {
	return []ProviderID{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama}
}

// ParseProviderID returns the provider for s, or false if s names no known provider.
func ParseProviderID(s string) (ProviderID, bool) {
	switch ProviderID(s) {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama:
		return ProviderID(s), true
	default:
		return "", false
	}
}

// ResolvedRoute is the concrete backend selected for a model profile.
type ResolvedRoute struct {
	ProviderID     ProviderID `json:"provider"`
	BackendModelID string     `json:"model"`
}
