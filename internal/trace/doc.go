// Package trace records what dynamic call sites do: misses, rule binds,
// cache traffic and promotions.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	dynsite stress --trace=- --trace-level=site
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped after a contract violation
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only the post-mortem ring dump
//   - LevelSite: CLI commands, site misses and inserts
//   - LevelDetail: adds shared rule cache traffic and binder spans
//   - LevelDebug: everything including promotions and evictions
//
// Hits on the fast path are never traced; they are counted instead.
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeBind, "bind", parentID)
//	defer span.End("")
package trace
