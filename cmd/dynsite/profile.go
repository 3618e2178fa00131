package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dynsite/internal/profile"
	"dynsite/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect saved cache profiles",
	Long: `Profiles are saved by convert --save and stress --save under
$XDG_CACHE_HOME/dynsite/profiles.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := profile.Open("dynsite")
		if err != nil {
			return err
		}
		ids, err := store.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "no profiles in", store.Dir())
			return nil
		}
		for _, id := range ids {
			snap, err := store.Load(id.String())
			if err != nil {
				fmt.Fprintf(out, "%s  %s\n", id, color.RedString(err.Error()))
				continue
			}
			fmt.Fprintf(out, "%s  %s  %-16s %s\n", id, snap.Created.Local().Format("2006-01-02 15:04:05"),
				snap.Command, ui.StatsLine(snap.Totals()))
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [RUN-ID]",
	Short: "Show a saved profile (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		store, err := profile.Open("dynsite")
		if err != nil {
			return err
		}
		var snap *profile.Snapshot
		if len(args) == 1 {
			snap, err = store.Load(args[0])
		} else {
			snap, err = store.Latest()
		}
		if err != nil {
			return err
		}
		switch strings.ToLower(format) {
		case "pretty":
			renderProfile(cmd.OutOrStdout(), snap)
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
	},
}

var profileDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete every saved profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := profile.Open("dynsite")
		if err != nil {
			return err
		}
		return store.DropAll()
	},
}

func init() {
	profileShowCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileDropCmd)
}

func renderProfile(out io.Writer, snap *profile.Snapshot) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", bold("run:    "), snap.RunID)
	fmt.Fprintf(out, "%s %s\n", bold("command:"), snap.Command)
	fmt.Fprintf(out, "%s %s\n", bold("created:"), snap.Created.Local().Format("2006-01-02 15:04:05"))
	for _, site := range snap.Sites {
		fmt.Fprintf(out, "\n%s %s %s (capacity %d)\n", bold("site"), site.Name, site.Config, site.Capacity)
		fmt.Fprintln(out, "  "+ui.StatsLine(site.Stats))
		for i, r := range site.Rules {
			fmt.Fprintf(out, "  %s %s\n", color.CyanString("%2d", i), r)
		}
	}
	for _, b := range snap.Binders {
		fmt.Fprintf(out, "\n%s %s: %d/%d rules, %d hits, %d misses, %d evictions\n", bold("binder"),
			b.Config, b.Cache.Len, b.Cache.Capacity, b.Cache.Hits, b.Cache.Misses, b.Cache.Evictions)
		for i, r := range b.Rules {
			fmt.Fprintf(out, "  %s %s\n", color.CyanString("%2d", i), r)
		}
	}
	if len(snap.Timings.Phases) > 0 {
		fmt.Fprintln(out)
		for _, p := range snap.Timings.Phases {
			fmt.Fprintf(out, "  %-12s %9.3f ms", p.Name, p.DurationMS)
			if p.Calls > 0 {
				fmt.Fprintf(out, "  %8.1f ns/call", p.NsPerCall)
			}
			fmt.Fprintf(out, "  %s\n", p.Note)
		}
	}
}
