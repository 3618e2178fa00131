package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dynsite/internal/callsite"
	"dynsite/internal/convert"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] VALUE",
	Short: "Show the rule the binder produces for one value",
	Example: `  dynsite explain --to Color 0
  dynsite explain --to i8 --kind explicit-try 300
  dynsite explain --to bool 'go(3)'`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	addConversionFlags(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	rt := s.rt

	cfg, err := readConversionConfig(cmd, rt.lit)
	if err != nil {
		return err
	}
	vals, err := readValues(rt.lit, args)
	if err != nil {
		return err
	}
	v := vals[0]

	b := rt.pool.Binder(cfg)
	var r *convert.Rule
	err = s.phase("bind", 0, func() (string, error) {
		r = b.Bind(v)
		return r.Desc, nil
	})
	if err != nil {
		return err
	}

	label := color.New(color.Bold).SprintFunc()
	out := s.out
	fmt.Fprintf(out, "%s %s\n", label("binder:  "), b)
	fmt.Fprintf(out, "%s %s\n", label("category:"), b.Category())
	fmt.Fprintf(out, "%s %s\n", label("shape:   "), types.Label(rt.in, b.Shape()))
	fmt.Fprintf(out, "%s %s\n", label("value:   "), object.Describe(rt.in, v))
	if name := goTypeName(v); name != "" {
		fmt.Fprintf(out, "%s %s\n", label("go type: "), name)
	}
	fmt.Fprintf(out, "%s %s\n", label("rule:    "), r.Desc)
	fmt.Fprintf(out, "%s %016x\n", label("key:     "), r.Key)
	fmt.Fprintf(out, "%s %v\n", label("matches: "), callsite.Validate(r, v))

	res := r.Action(v)
	if got, err := res.Unwrap(); err != nil {
		fmt.Fprintf(out, "%s %s\n", label("result:  "), formatFailure(err))
	} else {
		fmt.Fprintf(out, "%s %s\n", label("result:  "), object.Describe(rt.in, got))
	}
	return nil
}
