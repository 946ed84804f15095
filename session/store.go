// Package session implements the core.StateStore over two tiers: a bounded
// in-process hot cache and an optional durable key-value backend. The hot
// tier evicts the oldest-inserted session once capacity is reached; access
// does not refresh recency. Evicted state survives in the durable tier and
// is reloaded on the next access.
//
// Additional backends (Redis, Postgres, etc.) can be added without changing
// calling code; only the wiring layer picks the implementation.
package session

import (
	"fmt"
	"sync"

	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
)

// DefaultCapacity bounds the hot tier when no capacity is configured.
const DefaultCapacity = 1000

// Backend is the durable key-value tier, keyed by session then key.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Load returns every stored key/value pair for the session. A session
	// with no stored keys yields an empty map, not an error.
	Load(sessionID string) (map[string]any, error)

	// Get returns one value; the second result is false when absent.
	Get(sessionID, key string) (any, bool, error)

	// Put stores one value, replacing any previous one.
	Put(sessionID, key string, value any) error

	// Clear removes every key for the session.
	Clear(sessionID string) error
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Capacity bounds the number of sessions kept in the hot tier.
	Capacity int

	// Backend is the durable tier; nil keeps the store purely in-memory.
	Backend Backend

	Logger logging.Logger
}

// Store is the two-tier core.StateStore implementation.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
	order    []string // insertion order, oldest first
	capacity int
	backend  Backend
	logger   logging.Logger
}

var _ core.StateStore = (*Store)(nil)

// NewStore constructs a store with the default capacity and no durable tier.
func NewStore(optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		Capacity: DefaultCapacity,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	return &Store{
		sessions: make(map[string]*core.Session),
		capacity: opts.Capacity,
		backend:  opts.Backend,
		logger:   opts.Logger,
	}
}

// Get returns the session, creating it if absent. A session missing from the
// hot tier is rehydrated from the durable backend when one is configured.
func (s *Store) Get(sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocked(sessionID)
}

// ApplyDelta merges a key/value delta into the session state and writes each
// key through to the durable tier. The session's own lock serializes
// concurrent merges to the same session.
func (s *Store) ApplyDelta(sessionID string, delta map[string]any) error {
	s.mu.Lock()
	sess, err := s.sessionLocked(sessionID)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	sess.MergeState(delta)
	if s.backend == nil {
		return nil
	}
	for key, value := range delta {
		if err := s.backend.Put(sessionID, key, value); err != nil {
			return fmt.Errorf("persist %s/%s: %w", sessionID, key, err)
		}
	}
	return nil
}

// AppendMessage adds a conversation turn to the session history. History
// lives in the hot tier only; the durable tier holds state keys.
func (s *Store) AppendMessage(sessionID string, m core.Message) error {
	s.mu.Lock()
	sess, err := s.sessionLocked(sessionID)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	sess.AddMessage(m)
	return nil
}

// Clear removes the session from both tiers.
func (s *Store) Clear(sessionID string) error {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		for i, id := range s.order {
			if id == sessionID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	return s.backend.Clear(sessionID)
}

// Len returns the number of sessions resident in the hot tier.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sessionLocked returns the resident session, rehydrating or creating it as
// needed and evicting the oldest insertion at capacity. Caller holds s.mu.
func (s *Store) sessionLocked(sessionID string) (*core.Session, error) {
	if sess, ok := s.sessions[sessionID]; ok {
		return sess, nil
	}

	sess := core.NewSession(sessionID)
	if s.backend != nil {
		state, err := s.backend.Load(sessionID)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sessionID, err)
		}
		sess.MergeState(state)
	}

	if len(s.sessions) >= s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.sessions, oldest)
		s.logger.Debug("evicted session from hot tier", "session_id", oldest)
	}
	s.sessions[sessionID] = sess
	s.order = append(s.order, sessionID)
	return sess, nil
}
