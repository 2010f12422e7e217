// Package main provides the tenjin CLI: bootstrap of the project-local
// toolchain directory plus the repository maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd()

	// Errors are printed once, below
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 for any failure. A failing child's own status is not
// passed through.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// newRootCmd creates the root command for tenjin
func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "tenjin",
		Short: "Tenjin project bootstrap and maintenance tool",
		Long: `tenjin installs a hermetic toolchain into the project-local _local/
directory and runs repository checks against it.

Start with:
  tenjin bootstrap         # install uv, then provision everything
  tenjin bootstrap uv      # install uv only`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides TENJIN_LOG_LEVEL)")

	rootCmd.AddCommand(
		newBootstrapCmd(),
		newStatusCmd(),
		newCheckDepsCmd(),
		newProvisionCmd(),
		newFmtPyCmd(),
		newCheckPyCmd(),
		newCheckRepoFileSizesCmd(),
		newCheckStarCmd(),
		newOCamlCacheKeyCmd(),
	)

	return rootCmd
}
