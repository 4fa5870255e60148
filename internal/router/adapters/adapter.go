package adapters

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
)

// Provider wraps one external text-generation backend behind a uniform
// contract. Each implementation translates the canonical three-role message
// list into its backend's shape and owns exactly one client handle.
//
// Generate returns a *types.ProviderError on failure: ErrProviderUnavailable
// when the provider has no usable credential, ErrGenerationFailed otherwise.
type Provider interface {
	ID() types.ProviderID
	// Available reports whether a credential was configured.
	Available() bool
	Generate(ctx context.Context, backendModelID string, messages []types.LlmMessage) (*types.LlmResponse, error)
}

var (
	errMissingCredential = errors.New("credential not configured")
	errEmptyResponse     = errors.New("backend returned no content choices")
)

// NewHTTPClient builds the dedicated HTTP client for one provider.
func NewHTTPClient(cfg config.ProviderConfig, timeout time.Duration) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxConcurrent,
		MaxIdleConnsPerHost: cfg.MaxConcurrent,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if len(cfg.Headers) > 0 {
		transport = &headerTransport{base: transport, headers: cfg.Headers}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// headerTransport adds the configured static headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// reportedModel prefers the identifier reported by the backend.
func reportedModel(reported, requested string) string {
	if reported != "" {
		return reported
	}
	return requested
}
