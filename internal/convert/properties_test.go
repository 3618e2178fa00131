package convert

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/object"
	"dynsite/internal/testkit"
	"dynsite/internal/types"
)

func allConfigs(f *fixture) []Config {
	kinds := []capability.Kind{ImplicitCast, ExplicitCast, ImplicitTry, ExplicitTry}
	var out []Config
	for _, target := range f.targets() {
		for _, k := range kinds {
			out = append(out, Config{Target: target, Kind: k}, Config{Target: target, Kind: k, Box: true})
		}
	}
	return out
}

func TestBindAlwaysProducesMatchingRule(t *testing.T) {
	f := newFixture(t, PoolConfig{})
	for _, cfg := range allConfigs(f) {
		b := f.pool.Binder(cfg)
		for _, v := range f.values() {
			r := b.Bind(v)
			if r == nil {
				t.Fatalf("%s: nil rule for %s", b, object.Describe(f.in, v))
			}
			if !callsite.Validate(r, v) {
				t.Fatalf("%s: rule %q rejects %s", b, r.Desc, object.Describe(f.in, v))
			}
			if r.Shape != b.Shape() {
				t.Fatalf("%s: rule %q has shape %s, want %s", b, r.Desc,
					types.Label(f.in, r.Shape), types.Label(f.in, b.Shape()))
			}
		}
	}
}

type outcome struct {
	value object.Value
	code  callsite.Code
}

func run(t *testing.T, site *Site, v object.Value) outcome {
	t.Helper()
	got, err := site.Invoke(v)
	if err != nil {
		var fail *callsite.Failure
		if !errors.As(err, &fail) {
			t.Fatalf("unexpected error %v", err)
		}
		return outcome{code: fail.Code}
	}
	return outcome{value: got}
}

func sameOutcome(a, b outcome) bool {
	if a.code != b.code {
		return false
	}
	if a.value == nil || b.value == nil {
		return a.value == b.value
	}
	if object.Equal(a.value, b.value) {
		return true
	}
	// adapters are fresh per call; compare what they are
	return a.value.TypeID() == b.value.TypeID() && object.Inspect(a.value) == object.Inspect(b.value)
}

func TestColdAndWarmSitesAgree(t *testing.T) {
	f := newFixture(t, PoolConfig{SiteCapacity: 2})
	for _, cfg := range allConfigs(f) {
		warm := f.site(cfg)
		vals := f.values()
		for _, v := range vals {
			run(t, warm, v)
		}
		for _, v := range vals {
			cold := f.pool.NewSite("cold", cfg)
			want := run(t, cold, v)
			if got := run(t, warm, v); !sameOutcome(got, want) {
				t.Fatalf("%s on %s: warm %v/%s, cold %v/%s", DescribeConfig(f.in, cfg),
					object.Describe(f.in, v), got.value, got.code, want.value, want.code)
			}
		}
		testkit.CheckSite(t, warm)
	}
}

func TestPromotionMovesHitToFront(t *testing.T) {
	f := newFixture(t, PoolConfig{})
	site := f.site(Config{Target: types.Int64Type, Kind: ExplicitCast})
	run(t, site, object.I8(1))
	run(t, site, object.I16(1))
	run(t, site, object.I32(1))
	first := site.Rules()[2]
	run(t, site, object.I8(5))
	if got := site.Rules()[0]; got != first {
		t.Fatalf("hit rule must move to the front, got %s", got.Desc)
	}
	if st := site.Stats(); st.Promotions != 1 {
		t.Fatalf("expected one promotion, got %d", st.Promotions)
	}
}

func TestGrowthIsBounded(t *testing.T) {
	f := newFixture(t, PoolConfig{SiteCapacity: 3, CacheCapacity: 5})
	cfg := Config{Target: types.StringType, Kind: ExplicitCast}
	site := f.site(cfg)
	for n := 0; n < 3; n++ {
		for _, v := range f.values() {
			run(t, site, v)
		}
	}
	if n := len(site.Rules()); n > 3 {
		t.Fatalf("site holds %d rules, capacity 3", n)
	}
	cache := f.pool.Binder(cfg).RuleCache()
	if n := cache.Len(); n > 5 {
		t.Fatalf("rule cache holds %d rules, capacity 5", n)
	}
	testkit.CheckSite(t, site)
	testkit.CheckRuleCache(t, cache)
	if st := site.Stats(); st.Evictions == 0 {
		t.Fatalf("expected evictions")
	}
}

func TestSitesShareBinderCache(t *testing.T) {
	f := newFixture(t, PoolConfig{})
	cfg := Config{Target: types.BoolType, Kind: ImplicitCast}
	if f.pool.Binder(cfg) != f.pool.Binder(cfg) {
		t.Fatalf("equal configs must share a binder")
	}
	a, b := f.site(cfg), f.site(cfg)
	run(t, a, object.I64(3))
	run(t, b, object.I64(4))
	if st := b.Stats(); st.Binds != 0 || st.Misses != 1 {
		t.Fatalf("second site should reuse the cached rule, got %+v", st)
	}
	if a.Rules()[0] != b.Rules()[0] {
		t.Fatalf("sites must share the rule pointer")
	}
}

func TestConcurrentMisses(t *testing.T) {
	f := newFixture(t, PoolConfig{SiteCapacity: 4})
	cfg := Config{Target: types.BoolType, Kind: ImplicitCast}
	site := f.site(cfg)
	ref := f.newSiteOutcomes(t, cfg)

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < 16; w++ {
		w := w
		g.Go(func() error {
			vals := f.values()
			for i := 0; i < 200; i++ {
				v := vals[(i+w)%len(vals)]
				got, err := site.Invoke(v)
				want := ref[(i+w)%len(vals)]
				if err != nil {
					var fail *callsite.Failure
					if !errors.As(err, &fail) || fail.Code != want.code {
						return err
					}
					continue
				}
				if !sameOutcome(outcome{value: got}, want) {
					return errors.New("result differs from a fresh site for " + object.Inspect(v))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	testkit.CheckSite(t, site)
	testkit.CheckRuleCache(t, f.pool.Binder(cfg).RuleCache())
}

// newSiteOutcomes converts every sample value through its own fresh site.
func (f *fixture) newSiteOutcomes(t *testing.T, cfg Config) []outcome {
	t.Helper()
	vals := f.values()
	out := make([]outcome, len(vals))
	for i, v := range vals {
		out[i] = run(t, f.pool.NewSite("ref", cfg), v)
	}
	return out
}

func TestPoolEvictsBinders(t *testing.T) {
	f := newFixture(t, PoolConfig{MaxBinders: 2})
	for _, target := range []types.TypeID{types.Int8Type, types.Int16Type, types.Int32Type} {
		f.pool.Binder(Config{Target: target})
	}
	if n := len(f.pool.Binders()); n != 2 {
		t.Fatalf("pool must stay bounded, got %d binders", n)
	}
}

func TestSharedSitesBounded(t *testing.T) {
	f := newFixture(t, PoolConfig{MaxBinders: 2})
	targets := []types.TypeID{types.Int16Type, types.Int32Type, types.Int64Type, types.Float64Type}
	for _, target := range targets {
		got, err := f.pool.Convert(object.I8(5), Config{Target: target})
		if err != nil {
			t.Fatalf("i8 -> %s: %v", types.Label(f.in, target), err)
		}
		if n := f.pool.SharedSites(); n > 2 {
			t.Fatalf("shared sites must stay bounded, got %d", n)
		}
		if want, _ := f.pool.Convert(object.I8(5), Config{Target: target}); got != want {
			t.Fatalf("i8 -> %s: repeated conversion disagrees: %v vs %v", types.Label(f.in, target), got, want)
		}
	}
	first := f.pool.SharedSite(Config{Target: types.Float64Type})
	if again := f.pool.SharedSite(Config{Target: types.Float64Type}); again != first {
		t.Fatalf("a kept shared site must be reused")
	}
}
