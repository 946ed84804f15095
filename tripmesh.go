// Package tripmesh provides a high-level façade over the orchestrator and
// its services (session store, agent registry, search, streaming) enabling
// rapid construction of a travel-planning assistant. Most applications
// interact with this package by:
//  1. Creating a TripMesh via New() (optionally overriding default in-memory services)
//  2. Registering domain agents (RegisterDefaultAgents or RegisterAgent)
//  3. Sending user messages with Chat and consuming the streamed records
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable session backend and a structured
// logger.
package tripmesh

import (
	"context"

	"github.com/tripmesh/tripmesh/agent"
	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
	"github.com/tripmesh/tripmesh/model"
	"github.com/tripmesh/tripmesh/orchestrator"
	"github.com/tripmesh/tripmesh/search"
	"github.com/tripmesh/tripmesh/session"
	"github.com/tripmesh/tripmesh/stream"
)

// Options configures the TripMesh instance.
type Options struct {
	// Store holds session state; defaults to the in-memory two-tier store.
	Store core.StateStore

	// Search is the web-search adapter shared by the domain agents; nil
	// leaves agents without search context.
	Search *search.Adapter

	// ThrottleEvery and MinFragmentLen tune partial-record throttling.
	ThrottleEvery  int
	MinFragmentLen int

	// Logger defaults to a no-op logger.
	Logger logging.Logger
}

// TripMesh is the high-level façade aggregating the orchestrator and its
// services.
type TripMesh struct {
	registry     *agent.Registry
	store        core.StateStore
	orchestrator *orchestrator.Orchestrator
	aggregator   *stream.Aggregator
	search       *search.Adapter
	llm          model.Model
	logger       logging.Logger
}

// New creates a TripMesh over the given generation backend. Any unset
// service is initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) *TripMesh {
	opts := Options{
		ThrottleEvery:  stream.DefaultThrottleEvery,
		MinFragmentLen: stream.DefaultMinFragmentLen,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = session.NewStore(func(o *session.StoreOptions) {
			o.Logger = opts.Logger
		})
	}

	registry := agent.NewRegistry()
	orch := orchestrator.New(registry, opts.Store, llm, func(o *orchestrator.Options) {
		o.Logger = opts.Logger
	})
	agg := stream.NewAggregator(func(o *stream.Options) {
		o.ThrottleEvery = opts.ThrottleEvery
		o.MinFragmentLen = opts.MinFragmentLen
		o.Logger = opts.Logger
	})

	return &TripMesh{
		registry:     registry,
		store:        opts.Store,
		orchestrator: orch,
		aggregator:   agg,
		search:       opts.Search,
		llm:          llm,
		logger:       opts.Logger,
	}
}

// RegisterAgent adds a sub-agent to the registry.
func (t *TripMesh) RegisterAgent(a core.SubAgent) { t.registry.Register(a) }

// RegisterDefaultAgents registers the six built-in travel agents over the
// façade's generation backend and search adapter.
func (t *TripMesh) RegisterDefaultAgents() {
	agent.RegisterDefaults(t.registry, t.llm, t.search)
}

// Chat handles one user message and returns the stream of client records.
// The stream carries zero or more partial records followed by exactly one
// final record and is then closed.
func (t *TripMesh) Chat(ctx context.Context, sessionID, text string) (<-chan core.ChatMessage, error) {
	events, err := t.orchestrator.Process(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}
	out := make(chan core.ChatMessage)
	go t.aggregator.Relay(ctx, events, out)
	return out, nil
}

// ChatSync drains the stream and returns the final record, discarding
// partials. Convenience for callers without incremental delivery.
func (t *TripMesh) ChatSync(ctx context.Context, sessionID, text string) (core.ChatMessage, error) {
	records, err := t.Chat(ctx, sessionID, text)
	if err != nil {
		return core.ChatMessage{}, err
	}
	var last core.ChatMessage
	for m := range records {
		last = m
	}
	return last, nil
}

// Session returns the session for inspection, creating it if absent.
func (t *TripMesh) Session(sessionID string) (*core.Session, error) {
	return t.store.Get(sessionID)
}
