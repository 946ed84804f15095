package stream

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmesh/tripmesh/core"
)

func feed(events ...core.ResponseEvent) <-chan core.ResponseEvent {
	ch := make(chan core.ResponseEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestAggregator_ExactlyOneFinalAlwaysLast(t *testing.T) {
	agg := NewAggregator()
	records := agg.Collect(context.Background(), feed(
		core.PartialEvent{Text: "กำลังค้นหาข้อมูล..."},
		core.PartialEvent{Text: "กำลังสรุปผล..."},
		core.FinalEvent{Text: "นี่คือคำตอบค่ะ"},
	))

	require.NotEmpty(t, records)
	finals := 0
	for _, m := range records {
		if m.Final {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
	assert.True(t, records[len(records)-1].Final)
	assert.Equal(t, "นี่คือคำตอบค่ะ", records[len(records)-1].Message)
}

func TestAggregator_ThrottlesPartials(t *testing.T) {
	// 9 qualifying partials with default settings forwards at most ceil(9/3).
	var events []core.ResponseEvent
	for i := 0; i < 9; i++ {
		events = append(events, core.PartialEvent{Text: fmt.Sprintf("ชิ้นส่วนที่ %d ของคำตอบ", i)})
	}
	events = append(events, core.FinalEvent{Text: "คำตอบฉบับเต็ม"})

	agg := NewAggregator()
	records := agg.Collect(context.Background(), feed(events...))

	partials := 0
	for _, m := range records {
		if m.Partial {
			partials++
		}
	}
	assert.LessOrEqual(t, partials, 3)
	assert.Greater(t, partials, 0)
	assert.True(t, records[len(records)-1].Final)
}

func TestAggregator_ShortFragmentsNotForwarded(t *testing.T) {
	agg := NewAggregator()
	records := agg.Collect(context.Background(), feed(
		core.PartialEvent{Text: "สวัสดี"}, // 6 runes, forwarded
		core.PartialEvent{Text: "ครับ"},   // 4 runes, suppressed
		core.FinalEvent{Text: "สวัสดีครับ"},
	))

	for _, m := range records {
		if m.Partial {
			assert.NotEqual(t, "ครับ", m.Message)
		}
	}
}

func TestAggregator_StreamEndsWithoutTerminal_UsesBuffer(t *testing.T) {
	agg := NewAggregator()
	records := agg.Collect(context.Background(), feed(
		core.PartialEvent{Text: "คำตอบบางส่วน"},
	))

	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.True(t, last.Final)
	assert.Contains(t, last.Message, "คำตอบบางส่วน")
}

func TestAggregator_StreamEndsEmpty_UsesDefaultReply(t *testing.T) {
	agg := NewAggregator()
	records := agg.Collect(context.Background(), feed())

	require.Len(t, records, 1)
	assert.True(t, records[0].Final)
	assert.Equal(t, DefaultReply, records[0].Message)
}

func TestAggregator_ErrorEventBecomesFinalRecord(t *testing.T) {
	agg := NewAggregator()
	records := agg.Collect(context.Background(), feed(
		core.PartialEvent{Text: "กำลังประมวลผลคำขอ"},
		core.ErrorEvent{Message: "ขออภัยค่ะ เกิดข้อผิดพลาด"},
	))

	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.True(t, last.Final)
	assert.Equal(t, "ขออภัยค่ะ เกิดข้อผิดพลาด", last.Message)

	finals := 0
	for _, m := range records {
		if m.Final {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
}

func TestAggregator_StopsConsumingAfterTerminal(t *testing.T) {
	events := make(chan core.ResponseEvent, 3)
	events <- core.FinalEvent{Text: "เสร็จแล้วค่ะ"}
	events <- core.PartialEvent{Text: "ไม่ควรถูกอ่าน"}
	close(events)

	agg := NewAggregator()
	records := agg.Collect(context.Background(), events)

	require.Len(t, records, 1)
	assert.True(t, records[0].Final)
	// The trailing event stays unconsumed.
	assert.Len(t, events, 1)
}

func TestAggregator_ConfigurableThrottle(t *testing.T) {
	var events []core.ResponseEvent
	for i := 0; i < 4; i++ {
		events = append(events, core.PartialEvent{Text: fmt.Sprintf("ชิ้นส่วนยาวพอ %d", i)})
	}
	events = append(events, core.FinalEvent{Text: "จบ"})

	agg := NewAggregator(func(o *Options) {
		o.ThrottleEvery = 1
		o.MinFragmentLen = 1
	})
	records := agg.Collect(context.Background(), feed(events...))

	partials := 0
	for _, m := range records {
		if m.Partial {
			partials++
		}
	}
	assert.Equal(t, 4, partials)
}
