package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dynsite/internal/callsite"
	"dynsite/internal/convert"
	"dynsite/internal/object"
	"dynsite/internal/testkit"
	"dynsite/internal/ui"
)

var stressCmd = &cobra.Command{
	Use:   "stress [flags] [VALUE...]",
	Short: "Hammer one shared call site from many goroutines",
	Long: `Stress runs --workers goroutines that each push --iterations values through
one shared call site, checks every result against a fresh site, and verifies
the cache invariants afterwards. Without arguments a built-in value mix is
used.`,
	RunE: runStress,
}

var defaultStressValues = []string{
	"none", "true", "0", "7", "i8:-1", "u16:300", "2.5", "f32:0.0", "'x'",
	`""`, `"hello"`, `Name:"bob"`, `b"ab"`, "(1, 2)", "[1, 2, 3]", `{"k": 1}`,
	"Color.Green", "Bag(0)", "Bag(3)", "Flag(true)", "Vec(1, 2)", "Temp(21.5)",
	"ref(1)", "go(5)", `go("s")`, "go((1, 2))",
}

func init() {
	addConversionFlags(stressCmd)
	stressCmd.Flags().Int("workers", 8, "number of goroutines")
	stressCmd.Flags().Int("iterations", 20000, "calls per worker")
	stressCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	stressCmd.Flags().Bool("save", false, "save a cache profile of the run")
}

// expected is a reference outcome computed on a fresh site.
type expected struct {
	out  string
	code callsite.Code
}

func outcomeOf(v object.Value, err error) expected {
	if err != nil {
		var fail *callsite.Failure
		if errors.As(err, &fail) {
			return expected{code: fail.Code}
		}
		return expected{out: err.Error()}
	}
	return expected{out: object.Inspect(v) + "@" + fmt.Sprint(v.TypeID())}
}

func runStress(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	rt := s.rt

	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}
	iterations, err := cmd.Flags().GetInt("iterations")
	if err != nil {
		return fmt.Errorf("failed to get iterations flag: %w", err)
	}
	if workers < 1 || iterations < 1 {
		return fmt.Errorf("--workers and --iterations must be positive")
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readSwitch("ui", uiFlag)
	if err != nil {
		return err
	}
	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return fmt.Errorf("failed to get save flag: %w", err)
	}
	cfg, err := readConversionConfig(cmd, rt.lit)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = defaultStressValues
	}
	vals, err := readValues(rt.lit, args)
	if err != nil {
		return err
	}

	want := make([]expected, len(vals))
	err = s.phase("reference", len(vals), func() (string, error) {
		for i, v := range vals {
			want[i] = outcomeOf(rt.pool.NewSite("reference", cfg).Invoke(v))
		}
		return fmt.Sprintf("%d values", len(vals)), nil
	})
	if err != nil {
		return err
	}

	site := rt.pool.NewSite("stress", cfg)
	title := fmt.Sprintf("stress %s: %d workers x %d calls", convert.DescribeConfig(rt.in, cfg), workers, iterations)
	run := func(events chan<- ui.Event) error {
		return s.phase("workload", workers*iterations, func() (string, error) {
			err := hammer(cmd.Context(), site, vals, want, workers, iterations, events)
			return fmt.Sprintf("%d workers", workers), err
		})
	}

	if mode.enabledFor(os.Stdout) {
		events := make(chan ui.Event, 256)
		done := make(chan error, 1)
		go func() {
			done <- run(events)
			close(events)
		}()
		program := tea.NewProgram(ui.NewProgressModel(title, workers, iterations, events), tea.WithOutput(os.Stdout))
		_, uiErr := program.Run()
		// the UI may quit early; keep workers from blocking on a full channel
		go func() {
			for range events {
			}
		}()
		err = <-done
		if uiErr != nil && err == nil {
			err = uiErr
		}
	} else {
		s.log.Info("stress started", "config", convert.DescribeConfig(rt.in, cfg), "workers", workers, "iterations", iterations)
		err = run(nil)
	}
	if err != nil {
		return err
	}

	err = s.phase("verify", 0, func() (string, error) {
		b, ok := site.Binder().(*convert.Binder)
		if !ok {
			return "", errors.New("stress site has no conversion binder")
		}
		return "", errors.Join(testkit.SiteInvariants(site), testkit.CacheInvariants(b.RuleCache()))
	})
	if err != nil {
		return fmt.Errorf("cache invariants violated: %w", err)
	}

	out := s.out
	if !s.quiet {
		printRules(out, site.Rules())
	}
	fmt.Fprintln(out, ui.StatsLine(site.Stats()))
	if save {
		return s.saveProfile([]*convert.Site{site})
	}
	return nil
}

// hammer runs the workload. events may be nil.
func hammer(ctx context.Context, site *convert.Site, vals []object.Value, want []expected, workers, iterations int, events chan<- ui.Event) error {
	const every = 500
	send := func(ev ui.Event) {
		if events != nil {
			ev.Stats = site.Stats()
			events <- ev
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			send(ui.Event{Worker: w, Status: ui.StatusWorking})
			for i := 0; i < iterations; i++ {
				if i%every == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
					send(ui.Event{Worker: w, Done: i, Status: ui.StatusWorking})
				}
				k := (i*7 + w) % len(vals)
				got := outcomeOf(site.Invoke(vals[k]))
				if got != want[k] {
					send(ui.Event{Worker: w, Done: i, Status: ui.StatusError, Note: "mismatch"})
					return fmt.Errorf("worker %d: %s gave %s, a fresh site gives %s",
						w, object.Inspect(vals[k]), describeOutcome(got), describeOutcome(want[k]))
				}
			}
			send(ui.Event{Worker: w, Done: iterations, Status: ui.StatusDone})
			return nil
		})
	}
	return g.Wait()
}

func describeOutcome(e expected) string {
	if e.code != 0 {
		return e.code.String()
	}
	return strings.TrimSpace(e.out)
}
