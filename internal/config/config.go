// Package config loads dynsite.toml, searched upwards from a start
// directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dynsite/internal/convert"
	"dynsite/internal/trace"
)

// FileName is the configuration file looked up by Find.
const FileName = "dynsite.toml"

// ErrNoConfig is returned by Load when no dynsite.toml exists on the path
// to the filesystem root.
var ErrNoConfig = errors.New("no " + FileName + " found")

// Config is the decoded file.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	Trace TraceConfig `toml:"trace"`
	Log   LogConfig   `toml:"log"`
}

// CacheConfig sizes the call-site caches.
type CacheConfig struct {
	SiteCapacity      int `toml:"site_capacity"`
	RuleCacheCapacity int `toml:"rule_cache_capacity"`
	BinderPoolSize    int `toml:"binder_pool_size"`
}

// TraceConfig mirrors the --trace flags.
type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// LogConfig sets the CLI log level (debug|info|warn|error).
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Trace: TraceConfig{Level: "off", Mode: "ring", RingSize: trace.DefaultRingSize},
		Log:   LogConfig{Level: "info"},
	}
}

// Pool converts the cache section into pool settings. Zero values keep the
// pool defaults.
func (c Config) Pool() convert.PoolConfig {
	return convert.PoolConfig{
		SiteCapacity:  c.Cache.SiteCapacity,
		CacheCapacity: c.Cache.RuleCacheCapacity,
		MaxBinders:    c.Cache.BinderPoolSize,
	}
}

// Tracer converts the trace section into a tracer config.
func (c Config) Tracer() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}

// Find walks up from startDir looking for dynsite.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes the nearest dynsite.toml. It returns the path it
// read and ErrNoConfig together with Default when there is none.
func Load(startDir string) (Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", ErrNoConfig
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// LoadFile decodes and validates one file. Keys it leaves out keep their
// defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	for _, k := range []string{"site_capacity", "rule_cache_capacity", "binder_pool_size"} {
		if !meta.IsDefined("cache", k) {
			continue
		}
		if v := cacheValue(cfg.Cache, k); v <= 0 {
			return Config{}, fmt.Errorf("%s: [cache].%s must be positive, got %d", path, k, v)
		}
	}
	if _, err := cfg.Tracer(); err != nil {
		return Config{}, fmt.Errorf("%s: [trace]: %w", path, err)
	}
	if meta.IsDefined("trace", "ring_size") && cfg.Trace.RingSize <= 0 {
		return Config{}, fmt.Errorf("%s: [trace].ring_size must be positive", path)
	}
	if _, err := ParseLogLevel(cfg.Log.Level); err != nil {
		return Config{}, fmt.Errorf("%s: [log]: %w", path, err)
	}
	return cfg, nil
}

func cacheValue(c CacheConfig, key string) int {
	switch key {
	case "site_capacity":
		return c.SiteCapacity
	case "rule_cache_capacity":
		return c.RuleCacheCapacity
	default:
		return c.BinderPoolSize
	}
}
