package config

import (
	"os"
	"time"
)

type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds the single credential and transport settings of one backend.
type ProviderConfig struct {
	APIKey        string            `yaml:"api_key"`
	BaseURL       string            `yaml:"base_url,omitempty"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Timeout       time.Duration     `yaml:"timeout"`
	MaxTokens     int               `yaml:"max_tokens"`
	Temperature   *float64          `yaml:"temperature,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
}

// DefaultProviders reads credentials from the conventional environment variables.
func DefaultProviders() *ProvidersConfig {
	return &ProvidersConfig{
		Providers: map[string]ProviderConfig{
			"openai":    {APIKey: os.Getenv("OPENAI_API_KEY"), MaxConcurrent: 50},
			"anthropic": {APIKey: os.Getenv("ANTHROPIC_API_KEY"), MaxConcurrent: 50, MaxTokens: 1024},
			"gemini":    {APIKey: os.Getenv("GEMINI_API_KEY"), MaxConcurrent: 50},
			"ollama":    {BaseURL: os.Getenv("OLLAMA_HOST"), MaxConcurrent: 4},
		},
	}
}
