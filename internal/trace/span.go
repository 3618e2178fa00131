package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq numbers stored events across all tracers of the process.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID allocates a span ID. Zero is never returned.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// Span is an open bind or command. A nil or disabled span is inert, so
// callers never check whether tracing is on.
type Span struct {
	t     Tracer
	begin Event
	extra map[string]string
}

var inertSpan = &Span{t: Nop}

// Begin opens a span under parent (0 for a root) and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !enabledFor(t, scope) {
		return inertSpan
	}
	s := &Span{t: t, begin: Event{
		Time:     time.Now(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   NextSpanID(),
		ParentID: parent,
		Name:     name,
	}}
	ev := s.begin
	t.Emit(&ev)
	return s
}

func (s *Span) live() bool { return s != nil && s != inertSpan && s.t.Enabled() }

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

// End emits the end event with detail and the elapsed time under "dur".
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	ev := s.begin
	ev.Time = time.Now()
	ev.Kind = KindSpanEnd
	ev.Detail = detail
	dur := ev.Time.Sub(s.begin.Time)
	ev.Extra = s.extra
	if ev.Extra == nil {
		ev.Extra = make(map[string]string, 1)
	}
	ev.Extra["dur"] = dur.String()
	s.t.Emit(&ev)
	return dur
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

func enabledFor(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}
