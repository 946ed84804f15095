package agent

import (
	"sort"
	"sync"

	"github.com/tripmesh/tripmesh/core"
)

// Registry maps agent names to callable sub-agents. Descriptors are fixed at
// registration; re-registering a name replaces the previous agent. Safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.SubAgent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]core.SubAgent)}
}

// Register makes an agent available for dispatch under its own name.
func (r *Registry) Register(a core.SubAgent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name()] = a
}

// Lookup returns the agent registered under name.
func (r *Registry) Lookup(name string) (core.SubAgent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Resolve returns the agent handling the given intent, if any. Agent names
// coincide with intent names by convention.
func (r *Registry) Resolve(intent core.Intent) (core.SubAgent, bool) {
	return r.Lookup(intent.String())
}

// Names returns the sorted set of registered agent names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the descriptors of all registered agents keyed by name.
func (r *Registry) Descriptors() map[string]core.AgentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]core.AgentDescriptor, len(r.agents))
	for name, a := range r.agents {
		out[name] = a.Descriptor()
	}
	return out
}
