package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"dynsite/internal/config"
	"dynsite/internal/observ"
	"dynsite/internal/trace"
)

// session is what every command runs with: resolved configuration, the
// logger, the tracer and the demo runtime.
type session struct {
	cmd     *cobra.Command
	cfg     config.Config
	cfgPath string
	log     *slog.Logger
	tracer  trace.Tracer
	span    *trace.Span
	timer   *observ.Timer
	rt      *demoRuntime
	out     io.Writer
	quiet   bool
	timings bool
}

func newSession(cmd *cobra.Command) (*session, error) {
	s := &session{cmd: cmd, out: cmd.OutOrStdout(), timer: observ.NewTimer()}
	root := cmd.Root().PersistentFlags()

	var err error
	if s.quiet, err = root.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = root.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorFlag, err := root.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode, err := readSwitch("color", colorFlag)
	if err != nil {
		return nil, err
	}
	useColor := colorMode.enabledFor(os.Stdout)
	color.NoColor = !useColor

	phase := s.timer.Begin("config")
	if err := s.loadConfig(); err != nil {
		return nil, err
	}
	s.timer.End(phase, 0, s.cfgPath)

	level, err := config.ParseLogLevel(s.cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if s.quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	s.log = slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !useColor || !isTerminal(os.Stderr),
	}))
	if s.cfgPath == "" {
		s.log.Debug("no config file, using defaults")
	} else {
		s.log.Debug("config loaded", "path", s.cfgPath)
	}

	if err := s.setupTracing(); err != nil {
		return nil, err
	}

	phase = s.timer.Begin("runtime")
	s.rt, err = newDemoRuntime(s.tracer, s.cfg.Pool())
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	s.timer.End(phase, 0, "")
	return s, nil
}

// loadConfig reads dynsite.toml and applies flag overrides.
func (s *session) loadConfig() error {
	root := s.cmd.Root().PersistentFlags()
	path, err := root.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		if s.cfg, err = config.LoadFile(path); err != nil {
			return err
		}
		s.cfgPath = path
	} else {
		s.cfg, s.cfgPath, err = config.Load(".")
		if err != nil && !errors.Is(err, config.ErrNoConfig) {
			return err
		}
	}

	ints := []struct {
		flag string
		dst  *int
	}{
		{"site-capacity", &s.cfg.Cache.SiteCapacity},
		{"cache-capacity", &s.cfg.Cache.RuleCacheCapacity},
		{"binder-pool", &s.cfg.Cache.BinderPoolSize},
		{"trace-ring-size", &s.cfg.Trace.RingSize},
	}
	for _, o := range ints {
		if !root.Changed(o.flag) {
			continue
		}
		v, err := root.GetInt(o.flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
		if v <= 0 {
			return fmt.Errorf("--%s must be positive, got %d", o.flag, v)
		}
		*o.dst = v
	}
	strs := []struct {
		flag string
		dst  *string
	}{
		{"log-level", &s.cfg.Log.Level},
		{"trace", &s.cfg.Trace.Output},
		{"trace-level", &s.cfg.Trace.Level},
		{"trace-mode", &s.cfg.Trace.Mode},
	}
	for _, o := range strs {
		if !root.Changed(o.flag) {
			continue
		}
		v, err := root.GetString(o.flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
		*o.dst = v
	}
	// an output file without a level means the user wants to see sites
	if root.Changed("trace") && !root.Changed("trace-level") && s.cfg.Trace.Level == "off" {
		s.cfg.Trace.Level = "site"
		if !root.Changed("trace-mode") {
			s.cfg.Trace.Mode = "stream"
		}
	}
	return nil
}

// setupTracing creates the tracer and opens the command span.
func (s *session) setupTracing() error {
	tc, err := s.cfg.Tracer()
	if err != nil {
		return fmt.Errorf("invalid trace configuration: %w", err)
	}
	tracer, err := trace.New(tc)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	s.tracer = tracer
	ctx := trace.WithTracer(s.cmd.Context(), tracer)
	s.span = trace.Begin(tracer, trace.ScopeCLI, s.cmd.CommandPath(), 0)
	s.cmd.SetContext(trace.WithSpan(ctx, s.span))
	return nil
}

// close ends the command span and flushes the tracer. A ring tracer dumps
// what it holds when --trace names an output.
func (s *session) close() {
	if s.span != nil {
		s.span.End("")
		s.span = nil
	}
	if s.tracer == nil {
		return
	}
	if ring, ok := s.tracer.(*trace.RingTracer); ok && s.cfg.Trace.Output != "" {
		if err := s.dumpRing(ring); err != nil {
			s.log.Warn("trace dump failed", "err", err)
		}
	}
	if err := s.tracer.Flush(); err != nil {
		s.log.Warn("trace flush failed", "err", err)
	}
	if err := s.tracer.Close(); err != nil {
		s.log.Warn("trace close failed", "err", err)
	}
	if s.timings {
		fmt.Fprint(s.cmd.ErrOrStderr(), s.timer.Summary())
	}
}

func (s *session) dumpRing(ring *trace.RingTracer) error {
	if lost := ring.Dropped(); lost > 0 {
		s.log.Warn("trace ring overflowed", "dropped", lost, "ring_size", s.cfg.Trace.RingSize)
	}
	format := trace.InferFormat(s.cfg.Trace.Output)
	if s.cfg.Trace.Output == "-" {
		return ring.Dump(s.cmd.ErrOrStderr(), format)
	}
	f, err := os.Create(s.cfg.Trace.Output)
	if err != nil {
		return err
	}
	if err := ring.Dump(f, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// phase runs fn as a timed phase.
// phase times fn. calls is the number of site invocations fn makes.
func (s *session) phase(name string, calls int, fn func() (string, error)) error {
	idx := s.timer.Begin(name)
	start := time.Now()
	note, err := fn()
	s.timer.End(idx, calls, note)
	s.log.Debug("phase done", "phase", name, "took", time.Since(start))
	return err
}
