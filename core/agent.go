package core

import "context"

// AgentDescriptor identifies a sub-agent and the capabilities it has been
// granted. Descriptors are immutable after registration; the dispatcher uses
// them to validate routing directives and to enforce state-key ownership.
type AgentDescriptor struct {
	// Name is the registry key and routing directive target.
	Name string

	// Description is a short human-readable summary of the agent's domain.
	Description string

	// Tools lists the external tool names the agent may call.
	Tools []string

	// StateKeys lists the session state keys the agent may write. Deltas
	// touching other keys are dropped by the dispatcher.
	StateKeys []string

	// OutputKey is the single state key the agent's answer is stored under.
	// It must be an element of StateKeys.
	OutputKey string
}

// AllowsKey reports whether the descriptor grants writes to the given key.
func (d AgentDescriptor) AllowsKey(key string) bool {
	for _, k := range d.StateKeys {
		if k == key {
			return true
		}
	}
	return false
}

// AgentResult is the outcome of a sub-agent invocation: the visible answer
// text plus the state delta to merge into the session under the agent's
// declared keys.
type AgentResult struct {
	Text       string
	StateDelta map[string]any
}

// SubAgent is a specialized responder bound to one travel domain. Respond
// receives the user query and a read-only snapshot of session state and
// returns an answer; it must degrade to a user-facing fallback text instead
// of returning an error when the generation backend fails. The returned
// error is reserved for context cancellation.
type SubAgent interface {
	Name() string
	Descriptor() AgentDescriptor
	Respond(ctx context.Context, query string, state map[string]any) (*AgentResult, error)
}
