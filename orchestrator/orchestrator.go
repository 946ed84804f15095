// Package orchestrator implements the per-message dispatch state machine:
// intake, directive scan, intent classification, sub-agent invocation or
// direct answer, and state merge. Every request produces a stream of zero or
// more partial events followed by exactly one terminal event.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tripmesh/tripmesh/agent"
	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/intent"
	"github.com/tripmesh/tripmesh/logging"
	"github.com/tripmesh/tripmesh/model"
)

const (
	// errorReply is the localized terminal message for a total failure.
	errorReply = "ขออภัยค่ะ เกิดข้อผิดพลาดในการประมวลผล กรุณาลองใหม่อีกครั้งค่ะ"

	// planHeader opens every composed itinerary reply.
	planHeader = "===== แผนการเดินทางของคุณ ====="
)

// apologyFragment substitutes one failed directive without aborting the rest.
func apologyFragment(agentName string) string {
	return fmt.Sprintf("ขออภัยค่ะ ไม่สามารถเรียกใช้ผู้ช่วย %s ได้ในขณะนี้ค่ะ", agentName)
}

// progress messages emitted while the itinerary pipeline gathers each
// domain's recommendations.
var planStages = []struct {
	agent    string
	progress string
}{
	{core.IntentTransportation.String(), "กำลังค้นหาข้อมูลการเดินทาง..."},
	{core.IntentAccommodation.String(), "กำลังค้นหาที่พักที่เหมาะสม..."},
	{core.IntentRestaurant.String(), "กำลังรวบรวมร้านอาหารแนะนำ..."},
	{core.IntentActivity.String(), "กำลังคัดเลือกกิจกรรมและสถานที่ท่องเที่ยว..."},
}

// Options configures an Orchestrator.
type Options struct {
	Logger logging.Logger
}

// Orchestrator routes incoming chat messages to sub-agents or the direct
// generation backend and merges their state deltas into the session.
type Orchestrator struct {
	registry *agent.Registry
	store    core.StateStore
	llm      model.Model
	logger   logging.Logger
}

// New creates an Orchestrator over a registry, a state store and the direct
// answer backend.
func New(registry *agent.Registry, store core.StateStore, llm model.Model, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		registry: registry,
		store:    store,
		llm:      llm,
		logger:   opts.Logger,
	}
}

// Process handles one incoming message for the session and returns the
// response event stream. The returned channel carries zero or more
// PartialEvents followed by exactly one terminal event and is then closed.
// An error is returned only when intake itself fails, before any stream
// exists.
func (o *Orchestrator) Process(ctx context.Context, sessionID, message string) (<-chan core.ResponseEvent, error) {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if err := o.store.AppendMessage(sessionID, core.Message{
		Role:      "user",
		Content:   message,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	events := make(chan core.ResponseEvent)
	go func() {
		defer close(events)
		o.run(ctx, newEmitter(ctx, events), sessionID, message, sess.StateSnapshot())
	}()
	return events, nil
}

// run executes the state machine. Exactly one terminal event is emitted on
// every path, including cancellation.
func (o *Orchestrator) run(ctx context.Context, em *emitter, sessionID, message string, state map[string]any) {
	segments := ScanDirectives(message)
	hasDirective := false
	for _, s := range segments {
		if s.Directive != nil {
			hasDirective = true
			break
		}
	}

	var text string
	var failure error
	switch {
	case hasDirective:
		text, failure = o.processDirectives(ctx, em, sessionID, segments, state)
	default:
		detected := intent.Classify(message)
		sub, ok := o.registry.Resolve(detected)
		switch {
		case detected == core.IntentTravelPlanner && ok:
			text, failure = o.runTravelPlan(ctx, em, sessionID, message, state)
		case detected != core.IntentGeneral && ok:
			o.logger.Info("routing by intent", "session_id", sessionID, "intent", detected.String())
			text, failure = o.invokeSubAgent(ctx, sessionID, sub, message, state)
		default:
			text, failure = o.directAnswer(ctx, em, message, state)
		}
	}

	if failure != nil {
		if ctx.Err() != nil {
			em.send(core.ErrorEvent{Message: errorReply})
			return
		}
		o.logger.Error("request failed", "session_id", sessionID, "error", failure.Error())
		em.send(core.ErrorEvent{Message: errorReply})
		return
	}

	if err := o.store.AppendMessage(sessionID, core.Message{
		Role:      "assistant",
		Content:   text,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		o.logger.Warn("record assistant turn failed", "session_id", sessionID, "error", err.Error())
	}
	em.send(core.FinalEvent{Text: text})
}

// processDirectives handles explicit routing tags left to right. Plain text
// between tags passes through unchanged; each directive is replaced by its
// sub-agent's answer, or by an apology fragment when that single call fails.
func (o *Orchestrator) processDirectives(ctx context.Context, em *emitter, sessionID string, segments []Segment, state map[string]any) (string, error) {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Directive == nil {
			sb.WriteString(seg.Text)
			continue
		}
		d := seg.Directive

		sub, ok := o.registry.Lookup(d.Agent)
		if !ok {
			err := &core.UnknownAgentError{Agent: d.Agent}
			o.logger.Warn("directive names unknown agent", "session_id", sessionID, "error", err.Error())
			sb.WriteString(apologyFragment(d.Agent))
			continue
		}

		answer, err := o.invokeSubAgent(ctx, sessionID, sub, d.Query, state)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			o.logger.Warn("directive failed", "session_id", sessionID, "agent", d.Agent, "error", err.Error())
			sb.WriteString(apologyFragment(d.Agent))
			continue
		}
		if !em.send(core.PartialEvent{Text: answer}) {
			return "", ctx.Err()
		}
		sb.WriteString(answer)
	}
	return sb.String(), nil
}

// runTravelPlan gathers recommendations from each domain agent in sequence,
// emitting a progress partial per stage, then asks the planner to compose an
// itinerary over the merged state. A stage failure contributes nothing but
// does not abort the pipeline.
func (o *Orchestrator) runTravelPlan(ctx context.Context, em *emitter, sessionID, message string, state map[string]any) (string, error) {
	for _, stage := range planStages {
		sub, ok := o.registry.Lookup(stage.agent)
		if !ok {
			continue
		}
		if !em.send(core.PartialEvent{Text: stage.progress}) {
			return "", ctx.Err()
		}
		if _, err := o.invokeSubAgent(ctx, sessionID, sub, message, state); err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			o.logger.Warn("itinerary stage failed", "session_id", sessionID, "agent", stage.agent, "error", err.Error())
		}
		// Later stages and the planner see the refreshed state.
		sess, err := o.store.Get(sessionID)
		if err == nil {
			state = sess.StateSnapshot()
		}
	}

	planner, ok := o.registry.Lookup(core.IntentTravelPlanner.String())
	if !ok {
		return "", &core.UnknownAgentError{Agent: core.IntentTravelPlanner.String()}
	}
	if !em.send(core.PartialEvent{Text: "กำลังจัดทำแผนการเดินทางของคุณ..."}) {
		return "", ctx.Err()
	}

	enhanced := message + "\n\nจัดทำแผนการเดินทางแบบวันต่อวันจากข้อมูลที่รวบรวมไว้ข้างต้น"
	plan, err := o.invokeSubAgent(ctx, sessionID, planner, enhanced, state)
	if err != nil {
		return "", err
	}
	return planHeader + "\n\n" + plan, nil
}

// invokeSubAgent calls one agent, filters its state delta to the keys its
// descriptor declares, and merges the remainder into the session.
func (o *Orchestrator) invokeSubAgent(ctx context.Context, sessionID string, sub core.SubAgent, query string, state map[string]any) (string, error) {
	start := time.Now()
	result, err := sub.Respond(ctx, query, state)
	if err != nil {
		return "", &core.SubAgentError{Agent: sub.Name(), Err: err}
	}
	o.logger.Debug("sub-agent responded",
		"session_id", sessionID, "agent", sub.Name(), "duration_ms", time.Since(start).Milliseconds())

	if len(result.StateDelta) > 0 {
		desc := sub.Descriptor()
		filtered := make(map[string]any, len(result.StateDelta))
		for key, value := range result.StateDelta {
			if !desc.AllowsKey(key) {
				o.logger.Warn("dropping state key outside agent ownership",
					"session_id", sessionID, "agent", sub.Name(), "key", key)
				continue
			}
			filtered[key] = value
		}
		if len(filtered) > 0 {
			if err := o.store.ApplyDelta(sessionID, filtered); err != nil {
				return "", fmt.Errorf("merge state for %s: %w", sub.Name(), err)
			}
			// Keep the caller's working snapshot in step with the store.
			for key, value := range filtered {
				state[key] = value
			}
		}
	}
	return result.Text, nil
}

// directAnswer streams the root backend's reply for general queries,
// forwarding its partials as events.
func (o *Orchestrator) directAnswer(ctx context.Context, em *emitter, message string, state map[string]any) (string, error) {
	req := model.Request{
		Instructions: "คุณคือผู้ช่วยวางแผนการท่องเที่ยว ตอบคำถามทั่วไปอย่างสุภาพเป็นภาษาไทย",
		Messages:     []core.Message{{Role: "user", Content: message, Timestamp: time.Now().UTC()}},
		Stream:       true,
	}
	respCh, errCh := o.llm.Generate(ctx, req)

	var text string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				if text == "" {
					return "", &core.GenerationError{Err: fmt.Errorf("stream ended without output")}
				}
				return text, nil
			}
			if resp.Partial {
				if !em.send(core.PartialEvent{Text: resp.Text}) {
					return "", ctx.Err()
				}
				continue
			}
			text = resp.Text
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", &core.GenerationError{Err: err}
			}
		}
	}
}

// emitter delivers events to the consumer without leaking the producer
// goroutine when the request context ends first.
type emitter struct {
	ctx context.Context
	out chan<- core.ResponseEvent
}

func newEmitter(ctx context.Context, out chan<- core.ResponseEvent) *emitter {
	return &emitter{ctx: ctx, out: out}
}

// send reports false when the context was cancelled before delivery.
func (e *emitter) send(ev core.ResponseEvent) bool {
	select {
	case e.out <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}
