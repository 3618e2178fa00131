package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dynsite/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "dynsite",
	Short: "Polymorphic inline caches for dynamic value conversion",
	Long: `dynsite converts hosted runtime values through call sites that cache
guarded conversion rules, and reports how those caches behave.`,
	SilenceUsage: true,
}

// main registers subcommands and persistent flags, then executes the root
// command. It exits with status 1 when the command fails.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)

	// persistent flags, shared by every command
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to dynsite.toml (default: search upwards from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.Int("site-capacity", 0, "rules kept per call site")
	pf.Int("cache-capacity", 0, "rules kept per binder rule cache")
	pf.Int("binder-pool", 0, "binders kept by the pool")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "", "trace level (off|error|site|detail|debug)")
	pf.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	pf.Int("trace-ring-size", 0, "ring buffer size for --trace-mode=ring|both")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
