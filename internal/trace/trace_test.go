package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	if !LevelSite.ShouldEmit(ScopeSite) || LevelSite.ShouldEmit(ScopeCache) {
		t.Fatalf("site level must admit site events only")
	}
	if !LevelDetail.ShouldEmit(ScopeBind) || LevelDetail.ShouldEmit(ScopeRule) {
		t.Fatalf("detail level must stop before rule events")
	}
	if LevelError.ShouldEmit(ScopeCLI) {
		t.Fatalf("error level admits error events only")
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopeSite, name, "", nil)
	}
	got := ring.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Name != "b" || got[2].Name != "d" {
		t.Fatalf("unexpected order: %s..%s", got[0].Name, got[2].Name)
	}
}

func TestErrorEventsBypassLevel(t *testing.T) {
	ring := NewRingTracer(8, LevelError)
	Point(ring, ScopeSite, "miss", "", nil)
	Error(ring, ScopeBind, "contract-violation", "rule failed", nil)
	if ring.Len() != 1 {
		t.Fatalf("expected only the error event, got %d", ring.Len())
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatText)
	span := Begin(st, ScopeBind, "bind", 0)
	span.WithExtra("rule", "type(i64) -> identity").End("ok")
	if err := st.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "bind:bind") || !strings.Contains(out, "rule=type(i64) -> identity") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected begin and end lines:\n%s", out)
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	a := NewRingTracer(4, LevelDebug)
	b := NewRingTracer(4, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	Point(m, ScopeRule, "promote", "", nil)
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("both tracers must receive the event")
	}
	if r, ok := m.Ring(); !ok || r != a {
		t.Fatalf("expected first ring")
	}
}

func TestDisabledSpanIsInert(t *testing.T) {
	span := Begin(Nop, ScopeCLI, "noop", 0)
	if span.WithExtra("k", "v").End("") != 0 {
		t.Fatalf("disabled span must report zero duration")
	}
}

func TestRingReportsDropped(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"miss", "bind", "promote", "evict", "miss"} {
		Point(ring, ScopeRule, name, "", nil)
	}
	if ring.Dropped() != 3 || ring.Len() != 2 {
		t.Fatalf("Dropped = %d, Len = %d", ring.Dropped(), ring.Len())
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], "3 earlier events dropped") {
		t.Fatalf("unexpected dump:\n%s", buf.String())
	}
	if snap := ring.Snapshot(); snap[0].Seq >= snap[1].Seq {
		t.Fatalf("snapshot must be oldest first")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"site", "SITE", "Site"} {
		if l, err := ParseLevel(s); err != nil || l != LevelSite {
			t.Fatalf("ParseLevel(%q) = %v, %v", s, l, err)
		}
	}
	if _, err := ParseLevel("rule"); err == nil {
		t.Fatalf("rule is a scope, not a level")
	}
	if LevelDebug.String() != "debug" || Level(9).String() != "unknown" {
		t.Fatalf("unexpected level names")
	}
}

func TestContextCarriesTracerAndParent(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop || ParentSpan(ctx) != 0 {
		t.Fatalf("empty context must yield Nop and no parent")
	}
	ring := NewRingTracer(8, LevelDebug)
	ctx = WithTracer(ctx, ring)
	span := Begin(FromContext(ctx), ScopeCLI, "convert", 0)
	ctx = WithSpan(ctx, span)
	ctx = WithTracer(ctx, ring)
	if ParentSpan(ctx) != span.ID() || span.ID() == 0 {
		t.Fatalf("parent span lost: %d vs %d", ParentSpan(ctx), span.ID())
	}
	child := Begin(FromContext(ctx), ScopeBind, "bind", ParentSpan(ctx))
	child.End("")
	span.End("")
	events := ring.Snapshot()
	if len(events) != 4 || events[1].ParentID != span.ID() {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestNewBuildsSinks(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("off must yield Nop, got %T, %v", tr, err)
	}
	tr, err = New(Config{Level: LevelSite, Mode: ModeRing, RingSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*RingTracer); !ok {
		t.Fatalf("ring mode built %T", tr)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelSite, Mode: ModeBoth, Output: &buf, OutputPath: "trace.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	Point(tr, ScopeSite, "miss", "s1", nil)
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("ndjson expected for a .ndjson path, got %q", buf.String())
	}
	if m, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("both mode built %T", tr)
	} else if r, ok := m.Ring(); !ok || r.Len() != 1 {
		t.Fatalf("ring sink missed the event")
	}
	if _, err := New(Config{Level: LevelSite}); err == nil {
		t.Fatalf("a zero mode must be rejected")
	}
}

func TestInferFormat(t *testing.T) {
	tests := map[string]Format{"": FormatText, "-": FormatText, "out.txt": FormatText, "out.NDJSON": FormatNDJSON, "a/b.jsonl": FormatNDJSON}
	for path, want := range tests {
		if got := InferFormat(path); got != want {
			t.Errorf("InferFormat(%q) = %d, want %d", path, got, want)
		}
	}
}
