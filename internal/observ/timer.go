package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one stage of a command run: config load, warm-up, the workload,
// verification. Calls, when set, is the number of site invocations the
// phase made and turns the duration into a per-call cost.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Calls int
	Note  string
}

// PerCall is the mean duration of one invocation, 0 without calls.
func (p Phase) PerCall() time.Duration {
	if p.Calls <= 0 {
		return 0
	}
	return p.Dur / time.Duration(p.Calls)
}

// Timer records phases in the order they begin. Begin and End may be called
// from different goroutines.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a phase and returns the handle End takes.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End closes the phase. Unknown handles are ignored.
func (t *Timer) End(idx int, calls int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Calls = calls
	p.Note = note
}

// Summary renders the report for --timings.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-12s %9.3f ms", p.Name, p.DurationMS)
		if p.Calls > 0 {
			fmt.Fprintf(&sb, "  %8.1f ns/call", p.NsPerCall)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %9.3f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the serialized form of a phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Calls      int     `json:"calls,omitempty" msgpack:"calls,omitempty"`
	NsPerCall  float64 `json:"ns_per_call,omitempty" msgpack:"ns_per_call,omitempty"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report is the serialized form of a timer, stored in cache profiles.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var report Report
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		pr := PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Calls: p.Calls, Note: p.Note}
		if p.Calls > 0 {
			pr.NsPerCall = float64(p.Dur.Nanoseconds()) / float64(p.Calls)
		}
		report.Phases = append(report.Phases, pr)
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
