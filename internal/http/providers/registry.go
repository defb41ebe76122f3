package providers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Factory creates a provider from its configuration.
type Factory func(cfg Config, client *http.Client) (Provider, error)

// Builder collects factories at startup.
type Builder struct {
	factories map[string]Factory
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{factories: make(map[string]Factory)}
}

// RegisterFactory registers the factory for a provider name.
func (b *Builder) RegisterFactory(name string, f Factory) *Builder {
	b.factories[strings.ToLower(name)] = f
	return b
}

// Build instantiates every configured provider. Duplicate or unknown names
// and invalid configs are startup errors. The returned Registry never changes.
func (b *Builder) Build(cfgs []Config, client *http.Client) (*Registry, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	r := &Registry{providers: make(map[string]Provider, len(cfgs))}
	for _, cfg := range cfgs {
		name := strings.ToLower(strings.TrimSpace(cfg.Name))
		if _, dup := r.providers[name]; dup {
			return nil, fmt.Errorf("providers: duplicate provider %q", name)
		}
		f, ok := b.factories[name]
		if !ok {
			return nil, fmt.Errorf("providers: no factory for %q", name)
		}
		cfg.Name = name
		cfg.Scopes = append([]string(nil), LoginScopes...)
		p, err := f(cfg, client)
		if err != nil {
			return nil, fmt.Errorf("providers: %s: %w", name, err)
		}
		r.providers[name] = p
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Registry maps provider names to providers. Read-only after Build, so it
// is safe for concurrent use without locking.
type Registry struct {
	providers map[string]Provider
	names     []string
}

// Get returns the provider for name.
func (r *Registry) Get(name string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[strings.ToLower(name)]
	return p, ok
}

// Names lists the enabled providers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}
