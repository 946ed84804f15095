// Package stream converts a response event stream into the client-facing
// record sequence, throttling partial fragments and guaranteeing exactly one
// final record per request.
package stream

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
)

const (
	// DefaultThrottleEvery forwards every Nth qualifying partial fragment.
	DefaultThrottleEvery = 3

	// DefaultMinFragmentLen is the minimum fragment length, in runes, for a
	// partial to count toward throttling at all.
	DefaultMinFragmentLen = 5

	// DefaultReply is the final text when a stream ends with no terminal
	// event and an empty buffer.
	DefaultReply = "ขออภัยค่ะ ฉันยังไม่เข้าใจคำถามของคุณ กรุณาถามใหม่อีกครั้งค่ะ"
)

// Options configures an Aggregator.
type Options struct {
	// ThrottleEvery forwards one of every N qualifying partials. Values
	// below 1 are treated as 1 (no throttling).
	ThrottleEvery int

	// MinFragmentLen is the qualifying length threshold in runes.
	MinFragmentLen int

	// DefaultReply overrides the empty-buffer fallback text.
	DefaultReply string

	Logger logging.Logger
}

// Aggregator consumes one request's response events and emits client chat
// records. For every request it emits exactly one record with Final set,
// and that record is always the last one emitted.
type Aggregator struct {
	throttleEvery  int
	minFragmentLen int
	defaultReply   string
	logger         logging.Logger
}

// NewAggregator creates an Aggregator with the default throttle settings.
func NewAggregator(optFns ...func(o *Options)) *Aggregator {
	opts := Options{
		ThrottleEvery:  DefaultThrottleEvery,
		MinFragmentLen: DefaultMinFragmentLen,
		DefaultReply:   DefaultReply,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ThrottleEvery < 1 {
		opts.ThrottleEvery = 1
	}
	return &Aggregator{
		throttleEvery:  opts.ThrottleEvery,
		minFragmentLen: opts.MinFragmentLen,
		defaultReply:   opts.DefaultReply,
		logger:         opts.Logger,
	}
}

// Relay drains events and sends chat records to out. It stops consuming
// after the terminal record and always closes out. Short fragments are
// accumulated but never forwarded; of the qualifying fragments, the first of
// every throttle window is forwarded.
func (a *Aggregator) Relay(ctx context.Context, events <-chan core.ResponseEvent, out chan<- core.ChatMessage) {
	defer close(out)

	var buffer strings.Builder
	qualifying := 0

	emit := func(m core.ChatMessage) bool {
		select {
		case out <- m:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			emit(core.ChatMessage{Message: errorText(ctx.Err()), Final: true})
			return
		case ev, ok := <-events:
			if !ok {
				// Stream ended without a terminal event.
				text := buffer.String()
				if text == "" {
					text = a.defaultReply
				}
				a.logger.Warn("event stream ended without terminal event")
				emit(core.ChatMessage{Message: text, Final: true})
				return
			}

			switch e := ev.(type) {
			case core.PartialEvent:
				buffer.WriteString(e.Text)
				if utf8.RuneCountInString(e.Text) <= a.minFragmentLen {
					continue
				}
				if qualifying%a.throttleEvery == 0 {
					if !emit(core.ChatMessage{Message: e.Text, Partial: true}) {
						return
					}
				}
				qualifying++
			case core.FinalEvent:
				emit(core.ChatMessage{Message: e.Text, Final: true})
				return
			case core.ErrorEvent:
				emit(core.ChatMessage{Message: e.Message, Final: true})
				return
			}
		}
	}
}

// Collect runs Relay and returns the records in order. Intended for callers
// that do not need incremental delivery.
func (a *Aggregator) Collect(ctx context.Context, events <-chan core.ResponseEvent) []core.ChatMessage {
	out := make(chan core.ChatMessage)
	go a.Relay(ctx, events, out)

	var records []core.ChatMessage
	for m := range out {
		records = append(records, m)
	}
	return records
}

func errorText(err error) string {
	if err == context.DeadlineExceeded {
		return "ขออภัยค่ะ การประมวลผลใช้เวลานานเกินไป กรุณาลองใหม่อีกครั้งค่ะ"
	}
	return "ขออภัยค่ะ การสนทนาถูกยกเลิก กรุณาลองใหม่อีกครั้งค่ะ"
}
