package client

import (
	"context"
	"fmt"
	"strings"
)

// TranslateMeta carries the language pair for a translation call
type TranslateMeta struct {
	LangIn  string
	LangOut string
}

// Translator defines the interface for machine translation providers
type Translator interface {
	Translate(ctx context.Context, text string, meta TranslateMeta) (string, error)
	Name() string
	IsConfigured() bool
}

// ProviderRegistry resolves provider names to shared Translator instances
type ProviderRegistry struct {
	providers map[string]Translator
}

// NewProviderRegistry creates a registry over the given translators
func NewProviderRegistry(translators ...Translator) *ProviderRegistry {
	providers := make(map[string]Translator, len(translators))
	for _, t := range translators {
		if t != nil {
			providers[t.Name()] = t
		}
	}
	return &ProviderRegistry{providers: providers}
}

// Get returns the provider for name. An empty name resolves to google.
func (r *ProviderRegistry) Get(name string) (Translator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "google"
	}
	t, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return t, nil
}

// Names lists the registered provider names
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
