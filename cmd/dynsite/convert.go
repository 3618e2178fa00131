package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/convert"
	"dynsite/internal/literal"
	"dynsite/internal/object"
	"dynsite/internal/profile"
	"dynsite/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] VALUE...",
	Short: "Convert literal values through one call site",
	Long: `Convert reads each argument as a value literal, passes it through a single
call site configured by --to, --kind and --box, and prints the results
followed by the rules the site ended with.`,
	Example: `  dynsite convert --to bool 0 7 '"x"' none 'Bag(0)' 'Flag(true)'
  dynsite convert --to char --kind explicit '"a"' '"ab"' 65
  dynsite convert --to 'List<u8>' '"hé"' 'Vec(1, 2)'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	addConversionFlags(convertCmd)
	convertCmd.Flags().Int("repeat", 1, "pass the value list through the site this many times")
	convertCmd.Flags().Bool("save", false, "save a cache profile of the run")
}

func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("to", "object", "target type expression")
	cmd.Flags().String("kind", "implicit", "conversion kind (implicit|explicit|implicit-try|explicit-try)")
	cmd.Flags().Bool("box", false, "type results as object")
}

func readConversionConfig(cmd *cobra.Command, env literal.Env) (convert.Config, error) {
	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return convert.Config{}, fmt.Errorf("failed to get to flag: %w", err)
	}
	kindStr, err := cmd.Flags().GetString("kind")
	if err != nil {
		return convert.Config{}, fmt.Errorf("failed to get kind flag: %w", err)
	}
	box, err := cmd.Flags().GetBool("box")
	if err != nil {
		return convert.Config{}, fmt.Errorf("failed to get box flag: %w", err)
	}
	target, err := literal.ReadType(env, to)
	if err != nil {
		return convert.Config{}, fmt.Errorf("--to %q: %w", to, err)
	}
	kind, err := capability.ParseKind(kindStr)
	if err != nil {
		return convert.Config{}, err
	}
	return convert.Config{Target: target, Kind: kind, Box: box}, nil
}

func readValues(env literal.Env, args []string) ([]object.Value, error) {
	vals := make([]object.Value, 0, len(args))
	for _, arg := range args {
		v, err := literal.ReadValue(env, arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	rt := s.rt

	repeat, err := cmd.Flags().GetInt("repeat")
	if err != nil {
		return fmt.Errorf("failed to get repeat flag: %w", err)
	}
	if repeat < 1 {
		return fmt.Errorf("--repeat must be positive, got %d", repeat)
	}
	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return fmt.Errorf("failed to get save flag: %w", err)
	}
	cfg, err := readConversionConfig(cmd, rt.lit)
	if err != nil {
		return err
	}
	vals, err := readValues(rt.lit, args)
	if err != nil {
		return err
	}

	site := rt.pool.NewSite("cli", cfg)
	type row struct {
		in, out string
		err     error
	}
	var rows []row
	err = s.phase("convert", repeat*len(vals), func() (string, error) {
		for n := 0; n < repeat; n++ {
			rows = rows[:0]
			for _, v := range vals {
				got, err := site.Invoke(v)
				r := row{in: object.Describe(rt.in, v), err: err}
				if err == nil {
					r.out = object.Describe(rt.in, got)
				}
				rows = append(rows, r)
			}
		}
		return fmt.Sprintf("%d values x %d", len(vals), repeat), nil
	})
	if err != nil {
		return err
	}

	out := s.out
	fmt.Fprintln(out, convert.DescribeConfig(rt.in, cfg))
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.in))
	}
	width = min(width, 48)
	failures := 0
	for _, r := range rows {
		in := runewidth.FillRight(ui.Truncate(r.in, width), width)
		if r.err != nil {
			failures++
			fmt.Fprintf(out, "  %s  %s  %s\n", in, color.RedString("!!"), formatFailure(r.err))
			continue
		}
		fmt.Fprintf(out, "  %s  %s  %s\n", in, color.GreenString("->"), r.out)
	}
	if !s.quiet {
		printRules(out, site.Rules())
		fmt.Fprintln(out, ui.StatsLine(site.Stats()))
	}
	if save {
		if err := s.saveProfile([]*convert.Site{site}); err != nil {
			return err
		}
	}
	if failures > 0 {
		s.log.Debug("conversions failed", "count", failures)
	}
	return nil
}

func formatFailure(err error) string {
	var fail *callsite.Failure
	if errors.As(err, &fail) {
		return color.New(color.FgRed, color.Bold).Sprint(fail.Code.String()) + " " + fail.Message
	}
	return err.Error()
}

func printRules(out io.Writer, rules []*convert.Rule) {
	fmt.Fprintf(out, "rules (%d):\n", len(rules))
	for i, r := range rules {
		fmt.Fprintf(out, "  %s %s\n", color.CyanString("%2d", i), r.Desc)
	}
}

func (s *session) saveProfile(sites []*convert.Site) error {
	store, err := profile.Open("dynsite")
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}
	snap := profile.Capture(strings.TrimSpace(s.cmd.CommandPath()), s.rt.pool, sites, s.timer.Report())
	if err := store.Save(snap); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.log.Info("profile saved", "run", snap.RunID.String(), "dir", store.Dir())
	return nil
}
