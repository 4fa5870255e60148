package config

import (
	"fmt"

	"github.com/af-corp/chat-orchestrator/internal/types"
)

// Validate checks settings that the rest of the process relies on and repairs
// them in place where a safe value exists. Every problem found is returned as a
// *types.ConfigError; none of them is fatal.
func (c *Config) Validate() []error {
	var errs []error

	if c.Routing.ContextWindow <= 0 {
		errs = append(errs, &types.ConfigError{
			Field:  "routing.context_window",
			Reason: fmt.Sprintf("must be positive, got %d; using %d", c.Routing.ContextWindow, DefaultContextWindow),
		})
		c.Routing.ContextWindow = DefaultContextWindow
	}

	if c.Routing.DefaultModelProfile == "" {
		errs = append(errs, &types.ConfigError{
			Field:  "routing.default_model_profile",
			Reason: "empty; unknown-profile default route will be used",
		})
	}

	cl := &c.Routing.Classifier
	if _, ok := types.ParseProviderID(cl.Provider); !ok {
		errs = append(errs, &types.ConfigError{
			Field:  "routing.classifier.provider",
			Reason: fmt.Sprintf("unknown provider %q; using openai", cl.Provider),
		})
		cl.Provider = string(types.ProviderOpenAI)
	}
	if len(cl.AllowedModels) == 0 {
		errs = append(errs, &types.ConfigError{
			Field:  "routing.classifier.allowed_models",
			Reason: "empty; using built-in allow-list",
		})
		cl.AllowedModels = DefaultConfig().Routing.Classifier.AllowedModels
	}
	if cl.DefaultModel == "" {
		cl.DefaultModel = DefaultConfig().Routing.Classifier.DefaultModel
	}

	switch c.Store.Backend {
	case "postgres", "memory":
	default:
		errs = append(errs, &types.ConfigError{
			Field:  "store.backend",
			Reason: fmt.Sprintf("unknown backend %q; using memory", c.Store.Backend),
		})
		c.Store.Backend = "memory"
	}

	return errs
}
