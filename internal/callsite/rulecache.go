package callsite

import (
	"strconv"
	"sync"

	"dynsite/internal/observ"
	"dynsite/internal/trace"
)

// DefaultCacheCapacity bounds a binder's shared rule list.
const DefaultCacheCapacity = 128

// RuleCache is the second-level cache shared by every site of one binder.
// It is a bounded most-recently-used list searched by guard; a rule bound at
// one site is found by all others.
type RuleCache[A, R any] struct {
	mu       sync.Mutex
	rules    []*Rule[A, R]
	capacity int
	name     string
	tracer   trace.Tracer

	hits, misses, evictions uint64
}

// CacheConfig tunes a RuleCache.
type CacheConfig struct {
	Capacity int
	Name     string
	Tracer   trace.Tracer
}

// NewRuleCache creates an empty cache.
func NewRuleCache[A, R any](cfg CacheConfig) *RuleCache[A, R] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCacheCapacity
	}
	return &RuleCache[A, R]{
		capacity: cfg.Capacity,
		name:     cfg.Name,
		tracer:   trace.OrNop(cfg.Tracer),
	}
}

// LookupOrCreate returns the first cached rule whose guard accepts args,
// moving it to the front. Otherwise it calls resolve outside the lock and
// stores the result. shared reports a cache hit.
//
// Two goroutines missing on the same args may both resolve; the second
// insert replaces the first by Key.
func (c *RuleCache[A, R]) LookupOrCreate(args A, resolve func(A) *Rule[A, R]) (rule *Rule[A, R], shared bool) {
	if r := c.lookup(args); r != nil {
		return r, true
	}
	r := resolve(args)
	c.add(r)
	return r, false
}

func (c *RuleCache[A, R]) lookup(args A) *Rule[A, R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rules {
		if !r.Guard(args) {
			continue
		}
		if i > 0 {
			copy(c.rules[1:i+1], c.rules[:i])
			c.rules[0] = r
		}
		c.hits++
		if c.tracer.Enabled() {
			trace.Point(c.tracer, trace.ScopeCache, "hit", c.name, map[string]string{
				"rule": r.Desc,
				"pos":  strconv.Itoa(i),
			})
		}
		return r
	}
	c.misses++
	return nil
}

func (c *RuleCache[A, R]) add(r *Rule[A, R]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.rules[:0]
	for _, old := range c.rules {
		if !sameRule(old, r) {
			kept = append(kept, old)
		}
	}
	// clear the dropped tail so evicted rules can be collected
	clear(c.rules[len(kept):])
	c.rules = append(kept, nil)
	copy(c.rules[1:], c.rules[:len(c.rules)-1])
	c.rules[0] = r
	if over := len(c.rules) - c.capacity; over > 0 {
		clear(c.rules[c.capacity:])
		c.rules = c.rules[:c.capacity]
		c.evictions += uint64(over) //nolint:gosec // over > 0
		if c.tracer.Enabled() {
			trace.Point(c.tracer, trace.ScopeRule, "cache-evict", c.name, map[string]string{
				"count": strconv.Itoa(over),
			})
		}
	}
}

// Rules returns the cached rules, most recently used first.
func (c *RuleCache[A, R]) Rules() []*Rule[A, R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Rule[A, R](nil), c.rules...)
}

// Len returns the number of cached rules.
func (c *RuleCache[A, R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rules)
}

// Stats returns cache statistics.
func (c *RuleCache[A, R]) Stats() observ.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return observ.CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Len:       len(c.rules),
		Capacity:  c.capacity,
	}
}
