// Package model abstracts the generation backend behind a minimal streaming
// interface. The orchestrator and sub-agents depend only on the event
// ordering guarantee: zero or more partial responses followed by exactly one
// terminal response per Generate call.
package model

import (
	"context"
	"fmt"

	"github.com/tripmesh/tripmesh/core"
)

// Request captures the normalized model input.
type Request struct {
	// Instructions is the system prompt for this call.
	Instructions string `json:"instructions"`

	// Messages is the conversation context in chronological order.
	Messages []core.Message `json:"messages"`

	// Stream requests incremental partial responses.
	Stream bool `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by the backend.
type Response struct {
	// Partial marks an incremental fragment; the terminal response has
	// Partial false and carries the complete text.
	Partial bool `json:"partial"`

	// Text is the fragment text (partial) or full answer (terminal).
	Text string `json:"text"`

	// FinishReason is set on the terminal response ("stop", "length", ...).
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface required to drive generation. The response
// channel is closed after the terminal response; the error channel carries at
// most one error and is closed with the response channel.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// LastUserText returns the text of the most recent user message in the
// request, or the empty string.
func (r Request) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are keyed by the last user message; unknown inputs echo a
// generic reply. FailWith makes every call fail, exercising degraded paths.
type MockModel struct {
	info      Info
	responses map[string]string
	failErr   error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// FailWith makes every subsequent Generate call emit err on the error channel.
func (m *MockModel) FailWith(err error) { m.failErr = err }

// Generate implements Model; emits optional streaming rune chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if m.failErr != nil {
			errCh <- m.failErr
			return
		}
		if ctx.Err() != nil {
			errCh <- ctx.Err()
			return
		}

		input := req.LastUserText()
		full, ok := m.responses[input]
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Text: full, FinishReason: "stop"}:
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
