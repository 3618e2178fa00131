package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"dynsite/internal/version"
)

// buildInfo is printed by version. Fields past Version are only filled
// with --full.
type buildInfo struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show dynsite build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return fmt.Errorf("failed to get full flag: %w", err)
		}
		info := readBuildInfo(full)
		switch strings.ToLower(format) {
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), info)
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit, build date and toolchain")
}

// readBuildInfo prefers the linker-set variables and falls back to the VCS
// stamp the Go toolchain embeds.
func readBuildInfo(full bool) buildInfo {
	info := buildInfo{Tool: "dynsite", Version: orDefault(version.Version, "dev")}
	if !full {
		return info
	}
	commit := strings.TrimSpace(version.GitCommit)
	goVersion := runtime.Version()
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && commit == "" {
				commit = s.Value
			}
		}
	}
	info.GitCommit = orDefault(commit, "unknown")
	info.BuildDate = orDefault(version.BuildDate, "unknown")
	info.GoVersion = goVersion
	info.Platform = runtime.GOOS + "/" + runtime.GOARCH
	return info
}

func renderVersionPretty(out io.Writer, info buildInfo) {
	fmt.Fprintf(out, "dynsite %s\n", version.Colored())
	if info.GitCommit == "" {
		return
	}
	fmt.Fprintf(out, "commit:   %s\n", info.GitCommit)
	fmt.Fprintf(out, "built:    %s\n", info.BuildDate)
	fmt.Fprintf(out, "go:       %s\n", info.GoVersion)
	fmt.Fprintf(out, "platform: %s\n", info.Platform)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
