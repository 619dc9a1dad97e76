package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// Span is one begin/end pair. A span from a disabled tracer does nothing.
type Span struct {
	tracer Tracer
	begin  Event
	extra  map[string]string
}

// Begin emits the begin event of a span named name under parent (0 for a
// root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	s := &Span{
		tracer: t,
		begin: Event{
			Time:     time.Now(),
			Kind:     KindSpanBegin,
			Scope:    scope,
			SpanID:   spanCounter.Add(1),
			ParentID: parent,
			Name:     name,
		},
	}
	ev := s.begin
	t.Emit(&ev)
	return s
}

func (s *Span) live() bool {
	return s != nil && s.tracer != nil
}

// End emits the end event with detail, e.g. "cache hit" or "failed".
func (s *Span) End(detail string) {
	if !s.live() {
		return
	}
	ev := s.begin
	ev.Seq = 0
	ev.Time = time.Now()
	ev.Kind = KindSpanEnd
	ev.Detail = detail
	ev.Extra = s.extra
	if ev.Extra == nil {
		ev.Extra = map[string]string{}
	}
	ev.Extra["dur"] = ev.Time.Sub(s.begin.Time).Round(time.Microsecond).String()
	s.tracer.Emit(&ev)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID is 0 for a disabled span.
func (s *Span) ID() uint64 {
	if !s.live() {
		return 0
	}
	return s.begin.SpanID
}

// Point emits a single event, e.g. a cache write that failed.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}
