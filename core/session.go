package core

import (
	"sync"
	"time"
)

// Message is one turn of a conversation. Role is "user" or "assistant";
// Agent names the sub-agent that produced an assistant turn, empty for the
// root agent.
type Message struct {
	Role      string    `json:"role"`
	Agent     string    `json:"agent,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a conversational container tracking mutable key/value state and
// an ordered message history. It is safe for concurrent access.
//
// Contract:
//   - State mutations update the Updated timestamp
//   - History returns a defensive copy
//   - Clone deep-copies maps and slices for safe divergence
type Session struct {
	ID       string         `json:"id"`
	State    map[string]any `json:"state"`
	Messages []Message      `json:"messages"`
	Created  time.Time      `json:"created"`
	Updated  time.Time      `json:"updated"`
	mu       sync.RWMutex
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, State: map[string]any{}, Messages: []Message{}, Created: now, Updated: now}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a single key/value pair.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now().UTC()
}

// MergeState merges the provided delta into the state map.
func (s *Session) MergeState(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now().UTC()
}

// StateSnapshot returns a shallow copy of the state map.
func (s *Session) StateSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]any, len(s.State))
	for k, v := range s.State {
		snap[k] = v
	}
	return snap
}

// AddMessage appends a message to the history.
func (s *Session) AddMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
	s.Updated = time.Now().UTC()
}

// History returns a defensive copy of the message history. When limit > 0
// only the most recent limit messages are returned.
func (s *Session) History(limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:       s.ID,
		State:    make(map[string]any, len(s.State)),
		Messages: make([]Message, len(s.Messages)),
		Created:  s.Created,
		Updated:  s.Updated,
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.Messages, s.Messages)
	return clone
}

// StateStore persists sessions and their evolving state. Sessions are
// created lazily on first access and reclaimed by capacity eviction in the
// hot tier; Clear removes a session from every tier.
//
// Implementations must be safe for concurrent use and must serialize writes
// to the same session so that concurrent sub-agent merges cannot lose
// updates. Distinct sessions never interfere.
type StateStore interface {
	// Get returns the session for the given ID, creating it if absent.
	Get(sessionID string) (*Session, error)

	// ApplyDelta merges a key/value delta into the session state.
	ApplyDelta(sessionID string, delta map[string]any) error

	// AppendMessage adds a conversation turn to the session history.
	AppendMessage(sessionID string, m Message) error

	// Clear removes all state and history for the session.
	Clear(sessionID string) error
}
