package config

// ProfilesConfig maps user-facing model profiles to concrete backend routes.
type ProfilesConfig struct {
	Default  ProfileRoute            `yaml:"default"`
	Profiles map[string]ProfileRoute `yaml:"profiles"`
}

type ProfileRoute struct {
	DisplayName string `yaml:"display_name,omitempty"`
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
}

// DefaultProfiles is the built-in profile table. Entries from profiles.yaml
// are merged over it.
func DefaultProfiles() *ProfilesConfig {
	return &ProfilesConfig{
		Default: ProfileRoute{Provider: "openai", Model: "gpt-4o"},
		Profiles: map[string]ProfileRoute{
			"gpt-4o":            {DisplayName: "GPT-4o", Provider: "openai", Model: "gpt-4o"},
			"gpt-4.1-mini":      {DisplayName: "GPT-4.1 mini", Provider: "openai", Model: "gpt-4.1-mini"},
			"claude-3-5-sonnet": {DisplayName: "Claude 3.5 Sonnet", Provider: "anthropic", Model: "claude-3-5-sonnet-20241022"},
			"gemini-1.5-pro":    {DisplayName: "Gemini 1.5 Pro", Provider: "gemini", Model: "gemini-1.5-pro"},
		},
	}
}
