package trace

import (
	"fmt"
	"io"
	"sync"
)

// DefaultRingSize is the ring capacity when none is configured.
const DefaultRingSize = 4096

// RingTracer keeps the most recent events in memory. Nothing is written
// until Dump, so it is cheap enough to leave on during stress runs and read
// back after a contract violation.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	written uint64
	level   Level
}

// NewRingTracer creates a ring holding up to capacity events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit stores a copy of ev, overwriting the oldest event when full.
func (t *RingTracer) Emit(ev *Event) {
	if !admit(t.level, ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.written % uint64(len(t.buf))
	t.buf[slot] = *ev
	t.buf[slot].Seq = NextSeq()
	t.written++
}

// Snapshot returns the held events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.lenLocked()
	out := make([]Event, n)
	start := t.written - uint64(n)
	for i := range out {
		out[i] = t.buf[(start+uint64(i))%uint64(len(t.buf))]
	}
	return out
}

// Dropped reports how many events were overwritten.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written - uint64(t.lenLocked())
}

// Dump writes the held events to w. When events were overwritten a marker
// line in the same format precedes them.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if lost := t.Dropped(); lost > 0 {
		marker := Event{Kind: KindPoint, Scope: ScopeCLI, Name: "ring-overflow", Detail: fmt.Sprintf("%d earlier events dropped", lost)}
		if _, err := w.Write(FormatEvent(&marker, format)); err != nil {
			return err
		}
	}
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many events are held.
func (t *RingTracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lenLocked()
}

func (t *RingTracer) lenLocked() int {
	if t.written < uint64(len(t.buf)) {
		return int(t.written) //nolint:gosec // below len(t.buf)
	}
	return len(t.buf)
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
