package router

import (
	"errors"
	"testing"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allProviders() *Registry {
	return newTestRegistry(types.KnownProviders()...)
}

func TestResolve(t *testing.T) {
	table, errs := NewProfileTable(config.DefaultProfiles(), allProviders())
	require.Empty(t, errs)

	tests := []struct {
		name          string
		profile       string
		systemDefault string
		want          types.ResolvedRoute
	}{
		{
			name:    "known anthropic profile",
			profile: "claude-3-5-sonnet",
			want:    types.ResolvedRoute{ProviderID: types.ProviderAnthropic, BackendModelID: "claude-3-5-sonnet-20241022"},
		},
		{
			name:    "known gemini profile",
			profile: "gemini-1.5-pro",
			want:    types.ResolvedRoute{ProviderID: types.ProviderGemini, BackendModelID: "gemini-1.5-pro"},
		},
		{
			name:    "unknown profile falls back",
			profile: "unknown-profile",
			want:    DefaultRoute,
		},
		{
			name:          "empty profile uses system default",
			profile:       "",
			systemDefault: "gpt-4.1-mini",
			want:          types.ResolvedRoute{ProviderID: types.ProviderOpenAI, BackendModelID: "gpt-4.1-mini"},
		},
		{
			name: "empty profile and empty default",
			want: DefaultRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Resolve(tt.profile, tt.systemDefault))
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	table, _ := NewProfileTable(config.DefaultProfiles(), allProviders())
	first := table.Resolve("gpt-4o", "")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, table.Resolve("gpt-4o", ""))
	}
}

func TestNewProfileTable_RejectsInvalidEntries(t *testing.T) {
	cfg := &config.ProfilesConfig{
		Default: config.ProfileRoute{Provider: "openai", Model: "gpt-4o"},
		Profiles: map[string]config.ProfileRoute{
			"good":         {Provider: "openai", Model: "gpt-4o"},
			"bad-provider": {Provider: "mistral", Model: "mistral-large"},
			"unregistered": {Provider: "ollama", Model: "llama3.1:8b"},
			"no-model":     {Provider: "openai"},
		},
	}
	table, errs := NewProfileTable(cfg, newTestRegistry(types.ProviderOpenAI))

	require.Len(t, errs, 3)
	for _, err := range errs {
		var ce *types.ConfigError
		assert.True(t, errors.As(err, &ce))
	}

	names := make([]string, 0)
	for _, p := range table.Profiles() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"good"}, names)
	assert.Equal(t, DefaultRoute, table.Resolve("unregistered", ""))
}

func TestNewProfileTable_ConfiguredDefault(t *testing.T) {
	cfg := &config.ProfilesConfig{
		Default:  config.ProfileRoute{Provider: "anthropic", Model: "claude-3-5-haiku-20241022"},
		Profiles: map[string]config.ProfileRoute{},
	}
	table, errs := NewProfileTable(cfg, allProviders())
	require.Empty(t, errs)

	want := types.ResolvedRoute{ProviderID: types.ProviderAnthropic, BackendModelID: "claude-3-5-haiku-20241022"}
	assert.Equal(t, want, table.Resolve("whatever", ""))
	assert.Equal(t, want, table.Fallback())
}

func TestNewProfileTable_InvalidDefaultKeepsBuiltIn(t *testing.T) {
	cfg := &config.ProfilesConfig{Default: config.ProfileRoute{Provider: "nope", Model: "x"}}
	table, errs := NewProfileTable(cfg, allProviders())

	assert.Len(t, errs, 1)
	assert.Equal(t, DefaultRoute, table.Fallback())
}

func TestEffectiveProfile(t *testing.T) {
	assert.Equal(t, "override", EffectiveProfile("override", "stored"))
	assert.Equal(t, "stored", EffectiveProfile("", "stored"))
	assert.Equal(t, "", EffectiveProfile("", ""))
}
