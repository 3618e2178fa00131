package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dynsite/internal/trace"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSearchesUpwards(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, `
[cache]
site_capacity = 4
rule_cache_capacity = 32

[trace]
level = "site"
mode = "stream"
output = "-"

[log]
level = "debug"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := Load(nested)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %s, want a file in %s", path, root)
	}
	pc := cfg.Pool()
	if pc.SiteCapacity != 4 || pc.CacheCapacity != 32 || pc.MaxBinders != 0 {
		t.Fatalf("unexpected pool config %+v", pc)
	}
	tc, err := cfg.Tracer()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Level != trace.LevelSite || tc.Mode != trace.ModeStream || tc.RingSize != 4096 {
		t.Fatalf("unexpected trace config %+v", tc)
	}
	if lvl, _ := ParseLogLevel(cfg.Log.Level); lvl != slog.LevelDebug {
		t.Fatalf("log level %v", lvl)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, path, err := Load(t.TempDir())
	if !errors.Is(err, ErrNoConfig) {
		// a dynsite.toml above the temp dir would be picked up
		if path != "" {
			t.Skipf("found %s above the temp dir", path)
		}
		t.Fatalf("expected ErrNoConfig, got %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"[cache]\nsite_capacity = 0\n", "[cache].site_capacity must be positive"},
		{"[cache]\nbinder_pool_size = -1\n", "[cache].binder_pool_size must be positive"},
		{"[trace]\nlevel = \"loud\"\n", "invalid trace level"},
		{"[trace]\nmode = \"tape\"\n", "invalid storage mode"},
		{"[trace]\nring_size = 0\n", "ring_size must be positive"},
		{"[log]\nlevel = \"chatty\"\n", "invalid log level"},
		{"[cache]\nsite_capactiy = 3\n", "unknown keys: cache.site_capactiy"},
		{"[cache\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		path := writeFile(t, t.TempDir(), tt.body)
		_, err := LoadFile(path)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: got %v, want %q", tt.body, err, tt.want)
		}
	}
}
