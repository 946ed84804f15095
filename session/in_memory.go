package session

import "sync"

// InMemoryBackend is a volatile Backend storing values in a process-local
// map. Best suited for tests and ephemeral demo servers.
type InMemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

var _ Backend = (*InMemoryBackend)(nil)

// NewInMemoryBackend constructs an empty in-memory backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{data: make(map[string]map[string]any)}
}

// Load implements Backend.
func (b *InMemoryBackend) Load(sessionID string) (map[string]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.data[sessionID]))
	for key, value := range b.data[sessionID] {
		out[key] = value
	}
	return out, nil
}

// Get implements Backend.
func (b *InMemoryBackend) Get(sessionID, key string) (any, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.data[sessionID][key]
	return value, ok, nil
}

// Put implements Backend.
func (b *InMemoryBackend) Put(sessionID, key string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys, ok := b.data[sessionID]
	if !ok {
		keys = make(map[string]any)
		b.data[sessionID] = keys
	}
	keys[key] = value
	return nil
}

// Clear implements Backend.
func (b *InMemoryBackend) Clear(sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, sessionID)
	return nil
}
