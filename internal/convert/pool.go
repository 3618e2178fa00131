package convert

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"dynsite/internal/action"
	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/guard"
	"dynsite/internal/object"
	"dynsite/internal/trace"
	"dynsite/internal/types"
)

// DefaultMaxBinders bounds the binder pool.
const DefaultMaxBinders = 256

// PoolConfig tunes a Pool.
type PoolConfig struct {
	SiteCapacity  int // per-site rule list; <= 0 means callsite.DefaultCapacity
	CacheCapacity int // per-binder rule cache; <= 0 means callsite.DefaultCacheCapacity
	MaxBinders    int // interned binders and shared sites; <= 0 means DefaultMaxBinders
}

// Pool interns binders by configuration and creates sites bound to them.
// Sites keep their binder alive after the pool evicts it; only new sites
// get a fresh binder.
type Pool struct {
	env      Env
	cfg      PoolConfig
	binders  *lru.Cache[Config, *Binder]
	fallback capability.Fallback
	aenv     action.Env
	shared   *lru.Cache[Config, *Site]
}

// NewPool creates a pool. env.Types and env.Hooks are required.
func NewPool(env Env, cfg PoolConfig) (*Pool, error) {
	if env.Types == nil || env.Hooks == nil {
		return nil, errors.New("convert: pool needs a type interner and a hook registry")
	}
	if cfg.MaxBinders <= 0 {
		cfg.MaxBinders = DefaultMaxBinders
	}
	if cfg.SiteCapacity <= 0 {
		cfg.SiteCapacity = callsite.DefaultCapacity
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = callsite.DefaultCacheCapacity
	}
	env.Tracer = trace.OrNop(env.Tracer)
	binders, err := lru.New[Config, *Binder](cfg.MaxBinders)
	if err != nil {
		return nil, fmt.Errorf("convert: binder pool: %w", err)
	}
	shared, err := lru.New[Config, *Site](cfg.MaxBinders)
	if err != nil {
		return nil, fmt.Errorf("convert: shared sites: %w", err)
	}
	p := &Pool{
		env:     env,
		cfg:     cfg,
		binders: binders,
		aenv:    action.Env{Types: env.Types, Hooks: env.Hooks},
		shared:  shared,
	}
	p.fallback = &PlatformFallback{pool: p}
	if env.Fallback != nil {
		p.fallback = env.Fallback
	}
	return p, nil
}

// Types returns the interner the pool resolves against.
func (p *Pool) Types() *types.Interner { return p.env.Types }

// Tracer returns the pool's tracer.
func (p *Pool) Tracer() trace.Tracer { return p.env.Tracer }

// Binder returns the interned binder for cfg.
func (p *Pool) Binder(cfg Config) *Binder {
	if b, ok := p.binders.Get(cfg); ok {
		return b
	}
	b := newBinder(p, cfg)
	if prev, ok, _ := p.binders.PeekOrAdd(cfg, b); ok {
		return prev
	}
	return b
}

// Binders returns the currently interned binders, least recently used
// first.
func (p *Pool) Binders() []*Binder {
	keys := p.binders.Keys()
	out := make([]*Binder, 0, len(keys))
	for _, k := range keys {
		if b, ok := p.binders.Peek(k); ok {
			out = append(out, b)
		}
	}
	return out
}

// NewSite creates a site for cfg. name may be empty.
func (p *Pool) NewSite(name string, cfg Config) *Site {
	in := p.env.Types
	return callsite.New[object.Value, object.Value](p.Binder(cfg), callsite.Config[object.Value]{
		Capacity: p.cfg.SiteCapacity,
		Name:     name,
		Tracer:   p.env.Tracer,
		Describe: func(v object.Value) string { return object.Describe(in, v) },
	})
}

// SharedSite returns one pool-wide site per config, for callers with no
// natural place to keep their own. At most MaxBinders shared sites are
// kept; the least recently used one is dropped first.
func (p *Pool) SharedSite(cfg Config) *Site {
	if s, ok := p.shared.Get(cfg); ok {
		return s
	}
	s := p.NewSite("shared "+DescribeConfig(p.env.Types, cfg), cfg)
	if prev, ok, _ := p.shared.PeekOrAdd(cfg, s); ok {
		return prev
	}
	return s
}

// SharedSites returns the number of shared sites currently kept.
func (p *Pool) SharedSites() int { return p.shared.Len() }

// Convert converts v through the shared site for cfg.
func (p *Pool) Convert(v object.Value, cfg Config) (object.Value, error) {
	if v == nil {
		v = object.None
	}
	return p.SharedSite(cfg).Invoke(v)
}

// Rule builds a conversion rule from descriptions. Hooks and interop
// providers use it so their rules carry fingerprints and descriptions like
// the binder's own.
func (p *Pool) Rule(g guard.Guard, a action.Action, shape types.TypeID) *Rule {
	in := p.env.Types
	return callsite.NewRule(
		g.Compile(p.truthClass),
		a.Compile(p.aenv),
		shape,
		g.Fingerprint(),
		g.Describe(in)+" -> "+a.Describe(in),
	)
}

// converter returns an element conversion backed by its own implicit site.
func (p *Pool) converter(target types.TypeID) object.ConvFunc {
	if target == types.ObjectType {
		return func(v object.Value) (object.Value, error) { return v, nil }
	}
	site := p.NewSite("elem "+types.Label(p.env.Types, target), Config{Target: target, Kind: ImplicitCast})
	return func(v object.Value) (object.Value, error) { return site.Invoke(v) }
}

// ensureShape makes r's results fit shape. Boxed shapes accept anything,
// so only the label changes; otherwise the action is wrapped in a cast.
func (p *Pool) ensureShape(r *Rule, shape types.TypeID) *Rule {
	if r.Shape == shape {
		return r
	}
	if shape == types.ObjectType {
		return callsite.NewRule(r.Guard, r.Action, shape, r.Key, r.Desc+" as object")
	}
	cast := action.Cast(shape, action.Func(r.Desc, r.Action))
	return callsite.NewRule(r.Guard, cast.Compile(p.aenv), shape, r.Key, cast.Describe(p.env.Types))
}
