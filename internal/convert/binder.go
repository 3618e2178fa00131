package convert

import (
	"strconv"
	"sync/atomic"

	"dynsite/internal/callsite"
	"dynsite/internal/object"
	"dynsite/internal/trace"
	"dynsite/internal/types"
)

// Binder resolves conversions for one Config. It is stateless apart from
// its shared rule cache; Bind is a pure function of the value's type
// capabilities (and, for char, enum and none, of a value test encoded in
// the guard).
type Binder struct {
	pool     *Pool
	cfg      Config
	shape    types.TypeID
	category Category
	cache    *callsite.RuleCache[object.Value, object.Value]
	name     string

	// hookGen is the registry generation at the first bind, plus one.
	hookGen   atomic.Uint64
	lateHooks atomic.Bool
}

func newBinder(p *Pool, cfg Config) *Binder {
	in := p.env.Types
	name := DescribeConfig(in, cfg)
	return &Binder{
		pool:     p,
		cfg:      cfg,
		shape:    ReturnShape(in, cfg),
		category: Categorize(in, cfg.Target),
		cache: callsite.NewRuleCache[object.Value, object.Value](callsite.CacheConfig{
			Capacity: p.cfg.CacheCapacity,
			Name:     name,
			Tracer:   p.env.Tracer,
		}),
		name: name,
	}
}

// Config returns the binder's configuration.
func (b *Binder) Config() Config { return b.cfg }

// Shape returns the static type of successful results.
func (b *Binder) Shape() types.TypeID { return b.shape }

// Category returns the target family.
func (b *Binder) Category() Category { return b.category }

// RuleCache returns the cache shared by all sites of this binder.
func (b *Binder) RuleCache() *callsite.RuleCache[object.Value, object.Value] { return b.cache }

func (b *Binder) String() string { return b.name }

// Bind produces a rule whose guard accepts v.
func (b *Binder) Bind(v object.Value) *Rule {
	if v == nil {
		v = object.None
	}
	b.noteHookGeneration()
	span := trace.Begin(b.pool.env.Tracer, trace.ScopeBind, "bind", 0)
	r := b.bind(v)
	span.WithExtra("rule", r.Desc).End(b.name)
	return r
}

func (b *Binder) bind(v object.Value) *Rule {
	env := b.pool.env
	vt := v.TypeID()

	if h, ok := env.Hooks.Lookup(vt); ok && h.Convert != nil {
		if r := h.Convert(b.cfg, v); r != nil {
			return r
		}
	}

	if env.Interop != nil && env.Types.KindOf(vt) == types.KindForeign {
		if r := env.Interop.TryConvert(b.cfg, v); r != nil {
			return b.pool.ensureShape(r, b.shape)
		}
	}

	var r *Rule
	switch b.category {
	case CategoryBool:
		r = b.bindBool(v)
	case CategoryChar:
		r = b.bindChar(v)
	case CategoryArray:
		r = b.bindArray(v)
	case CategoryGeneric:
		r = b.bindGeneric(v)
	case CategorySeq:
		r = b.bindSeq(v)
	case CategoryIter:
		r = b.bindIter(v)
	case CategoryEnum:
		r = b.bindEnum(v)
	case CategoryOther:
	}
	if r != nil {
		return r
	}

	return b.pool.ensureShape(b.pool.fallback.ConvertTo(b.cfg, v), b.shape)
}

// LateHooks reports whether hooks were registered after this binder cached
// its first rule. Rules cached before the registration are not revisited.
func (b *Binder) LateHooks() bool { return b.lateHooks.Load() }

func (b *Binder) noteHookGeneration() {
	gen := b.pool.env.Hooks.Generation() + 1
	if b.hookGen.CompareAndSwap(0, gen) || b.hookGen.Load() == gen {
		return
	}
	if b.lateHooks.CompareAndSwap(false, true) {
		trace.Point(b.pool.env.Tracer, trace.ScopeSite, "late-hook-registration", b.name, map[string]string{
			"cached": strconv.Itoa(b.cache.Len()),
			"gen":    strconv.FormatUint(gen-1, 10),
		})
	}
}
