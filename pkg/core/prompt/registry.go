package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds prompt templates by id.
type Registry struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry, seeded with the built-in templates.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = NewRegistry()
		registerBuiltins(globalRegistry)
	})
	return globalRegistry
}

// NewRegistry creates an empty registry (useful for tests).
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds or replaces a template.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

// Lookup retrieves a template by id.
func (r *Registry) Lookup(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.templates[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("prompt not found: %s", id)
}

// MustLookup panics if the id is unknown; used for built-in ids.
func (r *Registry) MustLookup(id string) *Template {
	t, err := r.Lookup(id)
	if err != nil {
		panic(err)
	}
	return t
}

// List returns all registered ids, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}
