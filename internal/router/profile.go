package router

import (
	"fmt"
	"sort"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
)

// DefaultRoute is the hard-coded route used when a profile is unknown and the
// configured default is unusable.
var DefaultRoute = types.ResolvedRoute{ProviderID: types.ProviderOpenAI, BackendModelID: "gpt-4o"}

// ProfileInfo describes one resolvable profile for listings.
type ProfileInfo struct {
	Name        string              `json:"name"`
	DisplayName string              `json:"displayName,omitempty"`
	Route       types.ResolvedRoute `json:"route"`
}

// ProfileTable is the immutable profile-to-route mapping. Every route in it
// names a registered provider.
type ProfileTable struct {
	routes   map[string]ProfileInfo
	fallback types.ResolvedRoute
}

// NewProfileTable validates the configured profiles against the registry.
// Entries naming an unknown or unregistered provider, or no model, are dropped
// and reported as ConfigErrors.
func NewProfileTable(cfg *config.ProfilesConfig, registry *Registry) (*ProfileTable, []error) {
	var errs []error
	t := &ProfileTable{routes: make(map[string]ProfileInfo, len(cfg.Profiles)), fallback: DefaultRoute}

	if route, err := validateRoute("profiles.default", cfg.Default, registry); err != nil {
		if cfg.Default != (config.ProfileRoute{}) {
			errs = append(errs, err)
		}
	} else {
		t.fallback = route
	}

	for name, entry := range cfg.Profiles {
		route, err := validateRoute("profiles."+name, entry, registry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		t.routes[name] = ProfileInfo{Name: name, DisplayName: entry.DisplayName, Route: route}
	}
	return t, errs
}

func validateRoute(field string, entry config.ProfileRoute, registry *Registry) (types.ResolvedRoute, error) {
	id, ok := types.ParseProviderID(entry.Provider)
	if !ok {
		return types.ResolvedRoute{}, &types.ConfigError{Field: field, Reason: fmt.Sprintf("unknown provider %q", entry.Provider)}
	}
	if !registry.Has(id) {
		return types.ResolvedRoute{}, &types.ConfigError{Field: field, Reason: fmt.Sprintf("provider %q is not registered", id)}
	}
	if entry.Model == "" {
		return types.ResolvedRoute{}, &types.ConfigError{Field: field, Reason: "model is empty"}
	}
	return types.ResolvedRoute{ProviderID: id, BackendModelID: entry.Model}, nil
}

// Resolve maps a profile name to its route. An empty profile is replaced by
// systemDefault; a name with no entry gets the default route. Resolve never
// fails.
func (t *ProfileTable) Resolve(profile, systemDefault string) types.ResolvedRoute {
	if profile == "" {
		profile = systemDefault
	}
	if info, ok := t.routes[profile]; ok {
		return info.Route
	}
	return t.fallback
}

// Fallback returns the route used for unknown profiles.
func (t *ProfileTable) Fallback() types.ResolvedRoute { return t.fallback }

// Profiles lists the resolvable profiles sorted by name.
func (t *ProfileTable) Profiles() []ProfileInfo {
	out := make([]ProfileInfo, 0, len(t.routes))
	for _, info := range t.routes {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EffectiveProfile picks the first non-empty of the per-call override and the
// conversation's stored profile. An empty result means "use the system default".
func EffectiveProfile(override, conversationProfile string) string {
	if override != "" {
		return override
	}
	return conversationProfile
}
