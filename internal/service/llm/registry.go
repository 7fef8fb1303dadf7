// Package llm orchestrates chat turns: routing models to providers, running
// the generation loop, executing tools and fanning the output stream out to
// connected clients.
package llm

import (
	"fmt"
	"sync"

	domainllm "skiff/internal/domain/services/llm"
)

// ProviderRegistry routes model IDs to the provider that serves them.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers []domainllm.Provider
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{}
}

// Register adds a provider. Later registrations win when two providers claim
// the same model.
func (r *ProviderRegistry) Register(p domainllm.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append([]domainllm.Provider{p}, r.providers...)
}

// ForModel returns the provider that serves the given model ID.
func (r *ProviderRegistry) ForModel(model string) (domainllm.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.providers {
		if p.SupportsModel(model) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no provider supports model '%s'", model)
}
