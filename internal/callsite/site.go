// Package callsite implements polymorphic inline caching for dynamic
// operations.
//
// A Site holds a short, most-recently-used list of rules. Invoke walks the
// list and runs the first rule whose guard accepts the arguments. On a miss
// the site asks the binder's shared RuleCache, then the binder itself, checks
// the produced rule against the arguments and inserts it at the front.
//
// The rule list is an immutable snapshot behind an atomic pointer: readers
// never lock, and writers publish a new snapshot with compare-and-swap. A
// hit on the first rule performs no allocation.
package callsite

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"dynsite/internal/observ"
	"dynsite/internal/trace"
)

// DefaultCapacity bounds the per-site rule list.
const DefaultCapacity = 10

// Config tunes a Site.
type Config[A any] struct {
	// Capacity bounds the rule list; <= 0 means DefaultCapacity.
	Capacity int
	// Name labels the site in traces and reports.
	Name   string
	Tracer trace.Tracer
	// Describe renders arguments for diagnostics; defaults to %v.
	Describe func(A) string
}

var siteIDs atomic.Uint64

// Site is a call-site cache bound to one binder.
type Site[A, R any] struct {
	id       uint64
	name     string
	binder   Binder[A, R]
	capacity int
	tracer   trace.Tracer
	describe func(A) string
	counters observ.SiteCounters
	snap     atomic.Pointer[snapshot[A, R]]

	// probe sites have no binder; a miss only raises missed.
	probe  bool
	missed bool
}

type snapshot[A, R any] struct {
	rules    []*Rule[A, R]
	dispatch func(A) (Result[R], int)
}

// buildSnapshot specializes dispatch on the rule count so the common
// single-rule case is a guard call and an action call.
func buildSnapshot[A, R any](rules []*Rule[A, R]) *snapshot[A, R] {
	s := &snapshot[A, R]{rules: rules}
	switch len(rules) {
	case 0:
		s.dispatch = func(A) (Result[R], int) { return Result[R]{}, -1 }
	case 1:
		r := rules[0]
		s.dispatch = func(args A) (Result[R], int) {
			if r.Guard(args) {
				return r.Action(args), 0
			}
			return Result[R]{}, -1
		}
	default:
		s.dispatch = func(args A) (Result[R], int) {
			for i, r := range rules {
				if r.Guard(args) {
					return r.Action(args), i
				}
			}
			return Result[R]{}, -1
		}
	}
	return s
}

// New creates a site bound to binder.
func New[A, R any](binder Binder[A, R], cfg Config[A]) *Site[A, R] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Describe == nil {
		cfg.Describe = func(a A) string { return fmt.Sprintf("%v", a) }
	}
	s := &Site[A, R]{
		id:       siteIDs.Add(1),
		name:     cfg.Name,
		binder:   binder,
		capacity: cfg.Capacity,
		tracer:   trace.OrNop(cfg.Tracer),
		describe: cfg.Describe,
	}
	if s.name == "" {
		s.name = "site#" + strconv.FormatUint(s.id, 10)
	}
	s.snap.Store(buildSnapshot[A, R](nil))
	return s
}

// ID returns the process-unique site id.
func (s *Site[A, R]) ID() uint64 { return s.id }

// Name returns the site label.
func (s *Site[A, R]) Name() string { return s.name }

// Capacity returns the rule list bound.
func (s *Site[A, R]) Capacity() int { return s.capacity }

// Binder returns the binder the site was created with.
func (s *Site[A, R]) Binder() Binder[A, R] { return s.binder }

// Rules returns the current rule list, most recently used first.
func (s *Site[A, R]) Rules() []*Rule[A, R] {
	rules := s.snap.Load().rules
	return append([]*Rule[A, R](nil), rules...)
}

// Stats returns a copy of the site counters.
func (s *Site[A, R]) Stats() observ.SiteStats { return s.counters.Snapshot() }

// Invoke performs the operation for args.
func (s *Site[A, R]) Invoke(args A) (R, error) {
	return s.Call(args).Unwrap()
}

// Call performs the operation for args and returns the raw result.
func (s *Site[A, R]) Call(args A) Result[R] {
	snap := s.snap.Load()
	res, idx := snap.dispatch(args)
	switch {
	case idx == 0:
		s.counters.Hit()
		return res
	case idx > 0:
		s.counters.Hit()
		s.promote(snap.rules[idx])
		return res
	case s.probe:
		s.missed = true
		return Result[R]{}
	}
	return s.miss(args)
}

func (s *Site[A, R]) miss(args A) Result[R] {
	s.counters.Miss()

	var (
		fresh     Result[R]
		validated bool
	)
	resolve := func(a A) *Rule[A, R] {
		s.counters.Bind()
		r := s.binder.Bind(a)
		res, ok := probe(r, a)
		if !ok {
			s.violation(r, a)
		}
		fresh, validated = res, true
		return r
	}

	var (
		rule   *Rule[A, R]
		source = "bind"
	)
	if cache := s.binder.RuleCache(); cache != nil {
		var shared bool
		rule, shared = cache.LookupOrCreate(args, resolve)
		if shared {
			source = "cache"
		}
	} else {
		rule = resolve(args)
	}

	res := fresh
	if !validated {
		// the shared cache already matched the guard
		res = rule.Action(args)
	}
	s.insert(rule)

	if s.tracer.Enabled() {
		trace.Point(s.tracer, trace.ScopeSite, "miss", s.name, map[string]string{
			"rule":   rule.Desc,
			"source": source,
		})
	}
	return res
}

// insert publishes a snapshot with r at the front, dropping any rule it
// supersedes and trimming the tail to capacity.
func (s *Site[A, R]) insert(r *Rule[A, R]) {
	for {
		cur := s.snap.Load()
		next := make([]*Rule[A, R], 0, min(len(cur.rules)+1, s.capacity))
		next = append(next, r)
		evicted := 0
		for _, old := range cur.rules {
			if sameRule(old, r) {
				continue
			}
			if len(next) == s.capacity {
				evicted++
				continue
			}
			next = append(next, old)
		}
		if s.snap.CompareAndSwap(cur, buildSnapshot(next)) {
			s.counters.Insert()
			if evicted > 0 {
				s.counters.Evict(evicted)
				if s.tracer.Enabled() {
					trace.Point(s.tracer, trace.ScopeRule, "evict", s.name, map[string]string{
						"count": strconv.Itoa(evicted),
					})
				}
			}
			return
		}
	}
}

// promote moves r to the front. It gives up quietly when another writer
// already removed r or moved it first.
func (s *Site[A, R]) promote(r *Rule[A, R]) {
	for {
		cur := s.snap.Load()
		idx := -1
		for i, old := range cur.rules {
			if old == r {
				idx = i
				break
			}
		}
		if idx <= 0 {
			return
		}
		next := make([]*Rule[A, R], len(cur.rules))
		next[0] = r
		copy(next[1:], cur.rules[:idx])
		copy(next[idx+1:], cur.rules[idx+1:])
		if s.snap.CompareAndSwap(cur, buildSnapshot(next)) {
			s.counters.Promote()
			if s.tracer.Enabled() {
				trace.Point(s.tracer, trace.ScopeRule, "promote", s.name, map[string]string{
					"rule": r.Desc,
					"from": strconv.Itoa(idx),
				})
			}
			return
		}
	}
}

func (s *Site[A, R]) violation(r *Rule[A, R], args A) {
	cv := &ContractViolation{
		Site:   s.name,
		Binder: fmt.Sprintf("%v", s.binder),
		Rule:   r.String(),
		Args:   s.describe(args),
	}
	trace.Error(s.tracer, trace.ScopeBind, "contract-violation", cv.Error(), nil)
	panic(cv)
}
