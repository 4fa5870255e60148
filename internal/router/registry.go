package router

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/router/adapters"
	"github.com/af-corp/chat-orchestrator/internal/types"
)

// Registry maps provider identifiers to their adapters. It is built once at
// startup and never mutated, so concurrent reads need no locking.
type Registry struct {
	adapters map[types.ProviderID]adapters.Provider
}

// NewRegistry builds a registry from already constructed providers. A later
// provider with the same identifier replaces an earlier one.
func NewRegistry(providers ...adapters.Provider) *Registry {
	r := &Registry{adapters: make(map[types.ProviderID]adapters.Provider, len(providers))}
	for _, p := range providers {
		r.adapters[p.ID()] = p
	}
	return r
}

func (r *Registry) Get(id types.ProviderID) (adapters.Provider, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// Has reports whether id is registered, regardless of credential state.
func (r *Registry) Has(id types.ProviderID) bool {
	_, ok := r.adapters[id]
	return ok
}

// IDs returns the registered provider identifiers in sorted order.
func (r *Registry) IDs() []types.ProviderID {
	ids := make([]types.ProviderID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BuildFromConfig constructs one adapter per known provider. Providers without
// a credential are still registered so that routes to them fail with
// ErrProviderUnavailable instead of falling through; each one is reported as a
// ConfigError, as is any configured provider name that is not known.
func BuildFromConfig(ctx context.Context, provCfg *config.ProvidersConfig, defaultTimeout time.Duration) (*Registry, []error) {
	var errs []error
	for name := range provCfg.Providers {
		if _, ok := types.ParseProviderID(name); !ok {
			errs = append(errs, &types.ConfigError{
				Field:  "providers." + name,
				Reason: "unknown provider, entry ignored",
			})
		}
	}

	built := make([]adapters.Provider, 0, len(types.KnownProviders()))
	for _, id := range types.KnownProviders() {
		cfg := provCfg.Providers[string(id)]
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client := adapters.NewHTTPClient(cfg, timeout)

		var p adapters.Provider
		switch id {
		case types.ProviderOpenAI:
			p = adapters.NewOpenAIProvider(cfg, client, timeout)
		case types.ProviderAnthropic:
			p = adapters.NewAnthropicProvider(cfg, client, timeout)
		case types.ProviderGemini:
			p = adapters.NewGeminiProvider(ctx, cfg, timeout)
		case types.ProviderOllama:
			p = adapters.NewOllamaProvider(cfg, client, timeout)
		}
		built = append(built, p)

		if !p.Available() {
			errs = append(errs, &types.ConfigError{
				Field:  fmt.Sprintf("providers.%s", id),
				Reason: unavailableReason(p),
			})
		}
	}

	return NewRegistry(built...), errs
}

func unavailableReason(p adapters.Provider) string {
	if ie, ok := p.(interface{ InitError() error }); ok && ie.InitError() != nil {
		return fmt.Sprintf("client init failed (%v); calls will report provider unavailable", ie.InitError())
	}
	return "credential not set; calls will report provider unavailable"
}
