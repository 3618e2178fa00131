package trace

import "context"

// scopeState is what a context carries: the tracer and the innermost span.
type scopeState struct {
	tracer Tracer
	parent uint64
}

type stateKey struct{}

func stateOf(ctx context.Context) scopeState {
	if ctx != nil {
		if st, ok := ctx.Value(stateKey{}).(scopeState); ok {
			return st
		}
	}
	return scopeState{tracer: Nop}
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer { return stateOf(ctx).tracer }

// ParentSpan returns the innermost span ID recorded in ctx, or 0.
func ParentSpan(ctx context.Context) uint64 { return stateOf(ctx).parent }

// WithTracer attaches t to ctx and keeps any recorded parent span.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	st := stateOf(ctx)
	st.tracer = OrNop(t)
	return context.WithValue(ctx, stateKey{}, st)
}

// WithSpan makes s the parent of spans begun under ctx.
func WithSpan(ctx context.Context, s *Span) context.Context {
	st := stateOf(ctx)
	st.parent = s.ID()
	return context.WithValue(ctx, stateKey{}, st)
}
