package core

import (
	"errors"
	"fmt"
)

// ErrToolUnavailable marks a degraded search call: the backing credential is
// missing or the provider is unreachable. Callers receive it alongside an
// empty result list, never instead of one.
var ErrToolUnavailable = errors.New("search tool unavailable")

// UnknownAgentError reports a routing directive naming an agent that is not
// registered.
type UnknownAgentError struct {
	Agent string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown sub-agent %q", e.Agent)
}

// SubAgentError wraps a failure inside a single sub-agent invocation. The
// dispatcher substitutes an apology fragment and continues with the rest of
// the request.
type SubAgentError struct {
	Agent string
	Err   error
}

func (e *SubAgentError) Error() string {
	return fmt.Sprintf("sub-agent %s failed: %v", e.Agent, e.Err)
}

func (e *SubAgentError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the generation backend. It surfaces to
// the client as a single localized terminal event.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation backend failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
