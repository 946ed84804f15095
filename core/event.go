package core

import "github.com/google/uuid"

// ResponseEvent is a single element of the ordered stream produced while
// answering one chat request. The implementation set is closed: PartialEvent,
// FinalEvent and ErrorEvent. A well-formed stream carries zero or more
// PartialEvents followed by exactly one terminal event (Final or Error),
// and the terminal event is always last.
type ResponseEvent interface {
	// Terminal reports whether this event ends the stream.
	Terminal() bool

	isResponseEvent()
}

// PartialEvent carries an incremental text fragment of the answer in
// progress. Fragments concatenated in order compose the running buffer.
type PartialEvent struct {
	Text string
}

// Terminal implements ResponseEvent.
func (PartialEvent) Terminal() bool { return false }

func (PartialEvent) isResponseEvent() {}

// FinalEvent carries the complete answer text and ends the stream.
type FinalEvent struct {
	Text string
}

// Terminal implements ResponseEvent.
func (FinalEvent) Terminal() bool { return true }

func (FinalEvent) isResponseEvent() {}

// ErrorEvent ends the stream with a user-facing message in the session's
// working language. It never carries a raw internal error string.
type ErrorEvent struct {
	Message string
}

// Terminal implements ResponseEvent.
func (ErrorEvent) Terminal() bool { return true }

func (ErrorEvent) isResponseEvent() {}

// ChatMessage is the client-facing record relayed over the streaming channel.
// Exactly one record per request has Final set, and it is the last record
// sent.
type ChatMessage struct {
	Message string `json:"message"`
	Partial bool   `json:"partial,omitempty"`
	Final   bool   `json:"final,omitempty"`
}

// NewID returns a unique identifier for sessions and request tracking.
func NewID() string { return uuid.NewString() }
