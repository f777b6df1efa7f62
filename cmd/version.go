package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/stages"
)

// Set with -ldflags "-X github.com/spigell/screener/cmd.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the screener build and the pipeline variants it can run",
	RunE: func(_ *cobra.Command, _ []string) error {
		return writeVersion(os.Stdout, version, revision())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// writeVersion prints the build line and one line per pipeline variant with
// its stage count.
func writeVersion(w io.Writer, version, rev string) error {
	build := runtime.Version()
	if rev != "" {
		build += ", revision " + rev
	}
	fmt.Fprintf(w, "%s %s (%s)\n", app, version, build)

	set := stages.New(stages.Deps{Caller: ai.NewCaller(nil, nil, 0, 0)}, stages.DefaultConfig())
	for _, variant := range stages.Variants {
		pipe, err := stages.Build(variant, set)
		if err != nil {
			return err
		}
		names := pipe.Plan().Stages()
		fmt.Fprintf(w, "  %-8s %2d stages: %s\n", variant, len(names), strings.Join(names, ", "))
	}
	return nil
}

// revision returns the short vcs revision stamped by the go toolchain.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}
	return ""
}
