// Package agent implements the domain sub-agents and their registry. Each
// agent is bound to one travel domain, reads a fixed subset of session state,
// optionally consults the search adapter, and writes its answer to a single
// owned state key. Agents degrade to an apologetic fallback in the session's
// working language instead of surfacing generation failures.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
	"github.com/tripmesh/tripmesh/model"
	"github.com/tripmesh/tripmesh/search"
)

// DefaultFallback is the apology returned when the generation backend fails.
const DefaultFallback = "ขออภัยค่ะ ฉันไม่สามารถประมวลผลคำขอของคุณได้ในขณะนี้ กรุณาลองใหม่อีกครั้งค่ะ"

// SearchPlan derives the provider queries an agent should run for a user
// query given the current session state. Returning nil skips the search.
type SearchPlan func(query string, state map[string]any) []string

// DomainAgentOptions configures a DomainAgent instance.
type DomainAgentOptions struct {
	Description string
	Instruction Instruction

	// ExtraStateKeys extends the writable key set beyond the output key.
	ExtraStateKeys []string

	// Search enables web search; nil disables it. SearchPlan defaults to a
	// single search with the raw query when Search is set.
	Search      *search.Adapter
	SearchPlan  SearchPlan
	SearchDepth search.Depth

	// Fallback replaces DefaultFallback when non-empty.
	Fallback string

	Logger logging.Logger
}

// DomainAgent is the standard core.SubAgent implementation: one instruction
// template, one generation backend, an optional search adapter and a single
// owned output key.
type DomainAgent struct {
	descriptor  core.AgentDescriptor
	instruction Instruction
	llm         model.Model
	searchTool  *search.Adapter
	searchPlan  SearchPlan
	searchDepth search.Depth
	fallback    string
	logger      logging.Logger
}

// NewDomainAgent creates a sub-agent writing its answers under outputKey.
func NewDomainAgent(name, outputKey string, llm model.Model, optFns ...func(o *DomainAgentOptions)) *DomainAgent {
	opts := DomainAgentOptions{
		Description: fmt.Sprintf("Agent %s", name),
		Instruction: NewInstructionFromText(fmt.Sprintf("You are %s, a helpful travel assistant.", name)),
		SearchDepth: search.DepthBasic,
		Fallback:    DefaultFallback,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	stateKeys := append([]string{outputKey}, opts.ExtraStateKeys...)
	tools := []string{}
	if opts.Search != nil {
		tools = append(tools, "web_search")
		stateKeys = append(stateKeys, "last_search_query")
	}

	plan := opts.SearchPlan
	if plan == nil {
		plan = func(query string, _ map[string]any) []string { return []string{query} }
	}

	return &DomainAgent{
		descriptor: core.AgentDescriptor{
			Name:        name,
			Description: opts.Description,
			Tools:       tools,
			StateKeys:   stateKeys,
			OutputKey:   outputKey,
		},
		instruction: opts.Instruction,
		llm:         llm,
		searchTool:  opts.Search,
		searchPlan:  plan,
		searchDepth: opts.SearchDepth,
		fallback:    opts.Fallback,
		logger:      opts.Logger,
	}
}

// Name implements core.SubAgent.
func (a *DomainAgent) Name() string { return a.descriptor.Name }

// Descriptor implements core.SubAgent.
func (a *DomainAgent) Descriptor() core.AgentDescriptor { return a.descriptor }

// Respond implements core.SubAgent. The generation backend is called once,
// non-streaming, with search snippets appended to the query context when a
// search adapter is configured. Backend failures yield the fallback text; the
// error return is reserved for context cancellation.
func (a *DomainAgent) Respond(ctx context.Context, query string, state map[string]any) (*core.AgentResult, error) {
	instructions, err := a.instruction.Resolve(state)
	if err != nil {
		a.logger.Warn("instruction resolution failed", "agent", a.Name(), "error", err.Error())
		instructions = ""
	}

	delta := map[string]any{}
	prompt := query
	if snippets, lastQuery := a.collectSearchContext(ctx, query, state); snippets != "" {
		prompt = query + "\n\nข้อมูลเพิ่มเติมจากการค้นหา:\n" + snippets
		delta["last_search_query"] = lastQuery
	}

	start := time.Now()
	answer, err := a.generate(ctx, instructions, prompt)
	a.logger.Info("sub-agent generation finished",
		"agent", a.Name(), "duration_ms", time.Since(start).Milliseconds(), "success", err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error("generation failed, returning fallback", "agent", a.Name(), "error", err.Error())
		return &core.AgentResult{Text: a.fallback}, nil
	}

	delta[a.descriptor.OutputKey] = answer
	return &core.AgentResult{Text: answer, StateDelta: delta}, nil
}

// collectSearchContext runs the agent's search plan and renders the results
// as a snippet block. Degraded searches contribute nothing; they never fail
// the response.
func (a *DomainAgent) collectSearchContext(ctx context.Context, query string, state map[string]any) (string, string) {
	if a.searchTool == nil {
		return "", ""
	}
	var sb strings.Builder
	var lastQuery string
	for _, q := range a.searchPlan(query, state) {
		results, err := a.searchTool.Search(ctx, q, a.searchDepth)
		if err != nil {
			continue
		}
		lastQuery = q
		for _, r := range results {
			sb.WriteString("- ")
			sb.WriteString(truncate(r.Content, 1000))
			if r.Source != "" {
				sb.WriteString(" (")
				sb.WriteString(r.Source)
				sb.WriteString(")")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), lastQuery
}

func (a *DomainAgent) generate(ctx context.Context, instructions, prompt string) (string, error) {
	req := model.Request{
		Instructions: instructions,
		Messages:     []core.Message{{Role: "user", Content: prompt, Timestamp: time.Now().UTC()}},
	}
	respCh, errCh := a.llm.Generate(ctx, req)

	var text string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				if text == "" {
					return "", fmt.Errorf("generation produced no output")
				}
				return text, nil
			}
			if !resp.Partial {
				text = resp.Text
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil // closed, keep draining responses
				continue
			}
			if err != nil {
				return "", &core.GenerationError{Err: err}
			}
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
