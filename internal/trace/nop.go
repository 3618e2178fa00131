package trace

// Nop discards everything. Sites built without a tracer use it so the miss
// path never checks for nil.
var Nop Tracer = discard{}

type discard struct{}

func (discard) Emit(*Event)   {}
func (discard) Flush() error  { return nil }
func (discard) Close() error  { return nil }
func (discard) Level() Level  { return LevelOff }
func (discard) Enabled() bool { return false }

// OrNop returns t, or Nop when t is nil.
func OrNop(t Tracer) Tracer {
	if t == nil {
		return Nop
	}
	return t
}
