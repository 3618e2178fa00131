package profile_test

import (
	"errors"
	"testing"

	"dynsite/internal/capability"
	"dynsite/internal/convert"
	"dynsite/internal/object"
	"dynsite/internal/observ"
	"dynsite/internal/profile"
	"dynsite/internal/types"
)

func capture(t *testing.T) *profile.Snapshot {
	t.Helper()
	in := types.NewInterner()
	pool, err := convert.NewPool(convert.Env{Types: in, Hooks: capability.NewRegistry()}, convert.PoolConfig{})
	if err != nil {
		t.Fatal(err)
	}
	site := pool.NewSite("bools", convert.Config{Target: types.BoolType})
	for _, v := range []object.Value{object.I64(0), object.I64(2), object.S("x"), object.None} {
		if _, err := site.Invoke(v); err != nil {
			t.Fatalf("%s: %v", object.Inspect(v), err)
		}
	}
	timer := observ.NewTimer()
	timer.End(timer.Begin("run"), 4, "")
	return profile.Capture("test", pool, []*convert.Site{site}, timer.Report())
}

func TestCapture(t *testing.T) {
	snap := capture(t)
	if len(snap.Sites) != 1 || len(snap.Binders) != 1 {
		t.Fatalf("expected one site and one binder, got %d/%d", len(snap.Sites), len(snap.Binders))
	}
	sp := snap.Sites[0]
	if sp.Name != "bools" || sp.Config != "convert(bool, implicit)" {
		t.Fatalf("unexpected site %q %q", sp.Name, sp.Config)
	}
	if len(sp.Rules) != 3 {
		t.Fatalf("expected 3 rules (numeric, string, none), got %v", sp.Rules)
	}
	if total := snap.Totals(); total.Hits != 1 || total.Misses != 3 {
		t.Fatalf("unexpected totals %+v", total)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := profile.OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap := capture(t)
	if err := store.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(snap.RunID.String()[:8])
	if err != nil {
		t.Fatalf("load by prefix: %v", err)
	}
	if got.RunID != snap.RunID || got.Command != "test" || !got.Created.Equal(snap.Created) {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Sites) != 1 || got.Sites[0].Stats != snap.Sites[0].Stats {
		t.Fatalf("site stats mismatch: %+v", got.Sites)
	}
	if len(got.Timings.Phases) != 1 || got.Timings.Phases[0].Name != "run" {
		t.Fatalf("timings lost: %+v", got.Timings)
	}
	latest, err := store.Latest()
	if err != nil || latest.RunID != snap.RunID {
		t.Fatalf("latest = %v, %v", latest, err)
	}
}

func TestStoreMissing(t *testing.T) {
	store, err := profile.OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Latest(); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("empty store: %v", err)
	}
	if _, err := store.Load("deadbeef"); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	if err := store.Save(capture(t)); err != nil {
		t.Fatal(err)
	}
	if err := store.DropAll(); err != nil {
		t.Fatal(err)
	}
	ids, err := store.List()
	if err != nil || len(ids) != 0 {
		t.Fatalf("after DropAll: %v %v", ids, err)
	}
}
