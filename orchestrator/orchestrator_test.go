package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmesh/tripmesh/agent"
	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/model"
	"github.com/tripmesh/tripmesh/session"
)

// stubAgent is a scriptable SubAgent recording the queries it received.
type stubAgent struct {
	name    string
	keys    []string
	output  string
	delta   map[string]any
	err     error
	queries []string
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Descriptor() core.AgentDescriptor {
	return core.AgentDescriptor{
		Name:      s.name,
		StateKeys: s.keys,
		OutputKey: s.keys[0],
	}
}

func (s *stubAgent) Respond(_ context.Context, query string, _ map[string]any) (*core.AgentResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return &core.AgentResult{Text: s.output, StateDelta: s.delta}, nil
}

func collect(t *testing.T, events <-chan core.ResponseEvent) []core.ResponseEvent {
	t.Helper()
	var out []core.ResponseEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func finalOf(t *testing.T, events []core.ResponseEvent) core.ResponseEvent {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.Terminal(), "last event must be terminal")
	for _, ev := range events[:len(events)-1] {
		require.False(t, ev.Terminal(), "only the last event may be terminal")
	}
	return last
}

func newTestOrchestrator(t *testing.T, agents ...core.SubAgent) (*Orchestrator, *session.Store, *model.MockModel) {
	t.Helper()
	registry := agent.NewRegistry()
	for _, a := range agents {
		registry.Register(a)
	}
	store := session.NewStore()
	llm := model.NewMockModel("mock")
	return New(registry, store, llm), store, llm
}

func TestProcess_DirectiveEndToEnd(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.AddResponse("หาที่พักราคาประหยัดในหัวหิน", "แนะนำโรงแรมริมทะเลหัวหิน ราคาคืนละ 900 บาท")
	accommodation := agent.NewAccommodationAgent(llm, nil)

	registry := agent.NewRegistry()
	registry.Register(accommodation)
	store := session.NewStore()
	orch := New(registry, store, llm)

	events, err := orch.Process(context.Background(),
		"s1", "[CALL_SUB_AGENT:accommodation:หาที่พักราคาประหยัดในหัวหิน]")
	require.NoError(t, err)

	final := finalOf(t, collect(t, events))
	fe, ok := final.(core.FinalEvent)
	require.True(t, ok)
	assert.Contains(t, fe.Text, "โรงแรมริมทะเลหัวหิน")

	sess, err := store.Get("s1")
	require.NoError(t, err)
	value, ok := sess.GetState(agent.KeyAccommodation)
	require.True(t, ok, "accommodation_recommendations must be populated")
	assert.Contains(t, value.(string), "โรงแรมริมทะเลหัวหิน")
}

func TestProcess_DirectivesLeftToRight(t *testing.T) {
	first := &stubAgent{name: "transportation", keys: []string{"transportation_recommendations"}, output: "นั่งรถไฟ"}
	second := &stubAgent{name: "accommodation", keys: []string{"accommodation_recommendations"}, output: "พักโฮสเทล"}
	orch, _, _ := newTestOrchestrator(t, first, second)

	events, err := orch.Process(context.Background(), "s1",
		"[CALL_SUB_AGENT:transportation:ไปเชียงใหม่][CALL_SUB_AGENT:accommodation:พักเชียงใหม่]")
	require.NoError(t, err)

	final := finalOf(t, collect(t, events)).(core.FinalEvent)
	assert.Less(t, strings.Index(final.Text, "นั่งรถไฟ"), strings.Index(final.Text, "พักโฮสเทล"))
	assert.Equal(t, []string{"ไปเชียงใหม่"}, first.queries)
	assert.Equal(t, []string{"พักเชียงใหม่"}, second.queries)
}

func TestProcess_UnknownAgentDirective(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)

	events, err := orch.Process(context.Background(), "s1", "[CALL_SUB_AGENT:weather:พรุ่งนี้ฝนตกไหม]")
	require.NoError(t, err)

	final := finalOf(t, collect(t, events)).(core.FinalEvent)
	assert.Contains(t, final.Text, "ขออภัย")
	assert.Contains(t, final.Text, "weather")
}

func TestProcess_DirectiveFailureIsolation(t *testing.T) {
	failing := &stubAgent{name: "activity", keys: []string{"activity_recommendations"}, err: errors.New("backend down")}
	working := &stubAgent{name: "restaurant", keys: []string{"restaurant_recommendations"}, output: "ข้าวซอยนิมมาน"}
	orch, _, _ := newTestOrchestrator(t, failing, working)

	events, err := orch.Process(context.Background(), "s1",
		"[CALL_SUB_AGENT:activity:ทำอะไรดี][CALL_SUB_AGENT:restaurant:กินอะไรดี]")
	require.NoError(t, err)

	final := finalOf(t, collect(t, events)).(core.FinalEvent)
	assert.Contains(t, final.Text, "ขออภัย")
	assert.Contains(t, final.Text, "ข้าวซอยนิมมาน")
	assert.Equal(t, []string{"กินอะไรดี"}, working.queries)
}

func TestProcess_RoutesByIntent(t *testing.T) {
	restaurant := &stubAgent{name: "restaurant", keys: []string{"restaurant_recommendations"}, output: "ร้านเจ๊โอว"}
	orch, _, _ := newTestOrchestrator(t, restaurant)

	events, err := orch.Process(context.Background(), "s1", "ร้านอาหารอร่อยในพัทยา")
	require.NoError(t, err)

	final := finalOf(t, collect(t, events)).(core.FinalEvent)
	assert.Equal(t, "ร้านเจ๊โอว", final.Text)
	assert.Equal(t, []string{"ร้านอาหารอร่อยในพัทยา"}, restaurant.queries)
}

func TestProcess_GeneralFallsBackToDirectAnswer(t *testing.T) {
	orch, _, llm := newTestOrchestrator(t)
	llm.AddResponse("ไปเที่ยวน่าน", "น่านเป็นจังหวัดที่น่าไปค่ะ")

	events, err := orch.Process(context.Background(), "s1", "ไปเที่ยวน่าน")
	require.NoError(t, err)

	final := finalOf(t, collect(t, events)).(core.FinalEvent)
	assert.Equal(t, "น่านเป็นจังหวัดที่น่าไปค่ะ", final.Text)
}

func TestProcess_ForeignStateKeysDropped(t *testing.T) {
	greedy := &stubAgent{
		name:   "activity",
		keys:   []string{"activity_recommendations"},
		output: "ปีนเขา",
		delta: map[string]any{
			"activity_recommendations":   "ปีนเขา",
			"restaurant_recommendations": "ไม่ใช่ของฉัน",
		},
	}
	orch, store, _ := newTestOrchestrator(t, greedy)

	events, err := orch.Process(context.Background(), "s1", "[CALL_SUB_AGENT:activity:ทำอะไรดี]")
	require.NoError(t, err)
	finalOf(t, collect(t, events))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	_, owned := sess.GetState("activity_recommendations")
	assert.True(t, owned)
	_, foreign := sess.GetState("restaurant_recommendations")
	assert.False(t, foreign, "foreign key writes must be dropped")
}

func TestProcess_TotalBackendFailure(t *testing.T) {
	orch, _, llm := newTestOrchestrator(t)
	llm.FailWith(errors.New("connection reset"))

	events, err := orch.Process(context.Background(), "s1", "สวัสดีค่ะ")
	require.NoError(t, err)

	all := collect(t, events)
	final := finalOf(t, all)
	ee, ok := final.(core.ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, ee.Message, "ขออภัย")
}

func TestProcess_TravelPlanPipeline(t *testing.T) {
	transport := &stubAgent{name: "transportation", keys: []string{"transportation_recommendations"},
		output: "รถทัวร์", delta: map[string]any{"transportation_recommendations": "รถทัวร์"}}
	stay := &stubAgent{name: "accommodation", keys: []string{"accommodation_recommendations"},
		output: "โฮมสเตย์", delta: map[string]any{"accommodation_recommendations": "โฮมสเตย์"}}
	eat := &stubAgent{name: "restaurant", keys: []string{"restaurant_recommendations"},
		output: "ร้านริมน้ำ", delta: map[string]any{"restaurant_recommendations": "ร้านริมน้ำ"}}
	do := &stubAgent{name: "activity", keys: []string{"activity_recommendations"},
		output: "ล่องแพ", delta: map[string]any{"activity_recommendations": "ล่องแพ"}}
	planner := &stubAgent{name: "travel_planner", keys: []string{"travel_plan"},
		output: "วันแรกล่องแพ วันที่สองเดินตลาด", delta: map[string]any{"travel_plan": "วันแรกล่องแพ วันที่สองเดินตลาด"}}
	orch, store, _ := newTestOrchestrator(t, transport, stay, eat, do, planner)

	events, err := orch.Process(context.Background(), "s1", "ช่วยวางแผนเที่ยวเชียงใหม่ 3 วัน")
	require.NoError(t, err)

	all := collect(t, events)
	final := finalOf(t, all).(core.FinalEvent)
	assert.True(t, strings.HasPrefix(final.Text, "===== แผนการเดินทางของคุณ ====="))
	assert.Contains(t, final.Text, "วันแรกล่องแพ")

	partials := 0
	for _, ev := range all {
		if _, ok := ev.(core.PartialEvent); ok {
			partials++
		}
	}
	assert.GreaterOrEqual(t, partials, 5, "each stage and the planner emit progress")

	require.Len(t, transport.queries, 1)
	require.Len(t, planner.queries, 1)
	assert.Contains(t, planner.queries[0], "ช่วยวางแผนเที่ยวเชียงใหม่")

	sess, err := store.Get("s1")
	require.NoError(t, err)
	for _, key := range []string{
		"transportation_recommendations", "accommodation_recommendations",
		"restaurant_recommendations", "activity_recommendations", "travel_plan",
	} {
		_, ok := sess.GetState(key)
		assert.True(t, ok, key)
	}
}

func TestProcess_DirectiveBehaviorIndependentOfClassifier(t *testing.T) {
	// A message that would classify as restaurant still routes by directive.
	stay := &stubAgent{name: "accommodation", keys: []string{"accommodation_recommendations"}, output: "พูลวิลล่า"}
	restaurant := &stubAgent{name: "restaurant", keys: []string{"restaurant_recommendations"}, output: "ไม่ควรถูกเรียก"}
	orch, _, _ := newTestOrchestrator(t, stay, restaurant)

	events, err := orch.Process(context.Background(), "s1",
		"ร้านอาหาร [CALL_SUB_AGENT:accommodation:หาที่พัก]")
	require.NoError(t, err)
	finalOf(t, collect(t, events))

	assert.Empty(t, restaurant.queries)
	assert.Equal(t, []string{"หาที่พัก"}, stay.queries)
}
