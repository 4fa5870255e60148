package types

import (
	"errors"
	"fmt"
)

var (
	// ErrConversationNotFound is returned when the requested conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrProviderUnavailable means the provider cannot be called at all
	// (missing credential or no usable client).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrGenerationFailed means the provider call ran but errored, timed out,
	// or returned something unusable.
	ErrGenerationFailed = errors.New("generation failed")
)

// ProviderError carries the failure kind (ErrProviderUnavailable or
// ErrGenerationFailed) together with the original cause.
type ProviderError struct {
	Kind     error
	Provider ProviderID
	Model    string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s/%s", e.Kind, e.Provider, e.Model)
	}
	return fmt.Sprintf("%s: %s/%s: %v", e.Kind, e.Provider, e.Model, e.Cause)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ProviderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Unavailable builds a ProviderError of kind ErrProviderUnavailable.
func Unavailable(provider ProviderID, model string, cause error) *ProviderError {
	return &ProviderError{Kind: ErrProviderUnavailable, Provider: provider, Model: model, Cause: cause}
}

// GenerationFailed builds a ProviderError of kind ErrGenerationFailed.
func GenerationFailed(provider ProviderID, model string, cause error) *ProviderError {
	return &ProviderError{Kind: ErrGenerationFailed, Provider: provider, Model: model, Cause: cause}
}

// ConfigError is a startup configuration problem. It is logged, never fatal;
// the affected route degrades to ErrProviderUnavailable or the default route.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
