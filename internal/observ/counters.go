package observ

import "sync/atomic"

// SiteCounters are the per-site statistics. All fields are updated with
// atomic adds so the fast path stays lock-free.
type SiteCounters struct {
	hits       atomic.Uint64
	misses     atomic.Uint64
	binds      atomic.Uint64
	inserts    atomic.Uint64
	promotions atomic.Uint64
	evictions  atomic.Uint64
}

func (c *SiteCounters) Hit()        { c.hits.Add(1) }
func (c *SiteCounters) Miss()       { c.misses.Add(1) }
func (c *SiteCounters) Bind()       { c.binds.Add(1) }
func (c *SiteCounters) Insert()     { c.inserts.Add(1) }
func (c *SiteCounters) Promote()    { c.promotions.Add(1) }
func (c *SiteCounters) Evict(n int) { c.evictions.Add(uint64(n)) } //nolint:gosec // n is a non-negative count

// Snapshot copies the current values.
func (c *SiteCounters) Snapshot() SiteStats {
	return SiteStats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Binds:      c.binds.Load(),
		Inserts:    c.inserts.Load(),
		Promotions: c.promotions.Load(),
		Evictions:  c.evictions.Load(),
	}
}

// SiteStats is a point-in-time copy of SiteCounters.
type SiteStats struct {
	Hits       uint64 `json:"hits" msgpack:"hits"`
	Misses     uint64 `json:"misses" msgpack:"misses"`
	Binds      uint64 `json:"binds" msgpack:"binds"`
	Inserts    uint64 `json:"inserts" msgpack:"inserts"`
	Promotions uint64 `json:"promotions" msgpack:"promotions"`
	Evictions  uint64 `json:"evictions" msgpack:"evictions"`
}

// HitRate returns hits / (hits + misses), or 0 before the first call.
func (s SiteStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Add accumulates o into s.
func (s SiteStats) Add(o SiteStats) SiteStats {
	return SiteStats{
		Hits:       s.Hits + o.Hits,
		Misses:     s.Misses + o.Misses,
		Binds:      s.Binds + o.Binds,
		Inserts:    s.Inserts + o.Inserts,
		Promotions: s.Promotions + o.Promotions,
		Evictions:  s.Evictions + o.Evictions,
	}
}

// CacheStats describes a shared rule cache.
type CacheStats struct {
	Hits      uint64 `json:"hits" msgpack:"hits"`
	Misses    uint64 `json:"misses" msgpack:"misses"`
	Evictions uint64 `json:"evictions" msgpack:"evictions"`
	Len       int    `json:"len" msgpack:"len"`
	Capacity  int    `json:"capacity" msgpack:"capacity"`
}
