package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tenjin-project/tenjin/pkg/bootstrap"
	"github.com/tenjin-project/tenjin/pkg/fetch"
	"github.com/tenjin-project/tenjin/pkg/provision"
)

func newProvisionCmd() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "provision [scope]",
		Short: "Download and unpack the hermetic toolchains into _local",
		Long: `Provision _local with, in order:
  deps    prebuilt build dependencies
  llvm    Clang+LLVM with a Debian bullseye sysroot
  cmake   CMake
  opam    opam and an OCaml switch

The optional scope is "all" (the default) or one step name, the same as --only.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := selectSteps(only, args)
			if err != nil {
				return err
			}

			a, err := newProjectApp(cmd, "provision")
			if err != nil {
				return err
			}

			manifest, err := provision.DefaultManifest()
			if err != nil {
				return err
			}

			p := provision.New(a.env(cmd), manifest, fetch.NewDownloader(), a.say, a.log)
			return p.Run(cmd.Context(), steps)
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "Run a single step (deps, llvm, cmake, opam)")
	return cmd
}

// selectSteps resolves --only and the positional scope. An empty result
// means every step.
func selectSteps(only string, args []string) ([]provision.Step, error) {
	scope := only
	if len(args) > 0 {
		if only != "" && only != args[0] {
			return nil, fmt.Errorf("scope %q conflicts with --only %q", args[0], only)
		}
		scope = args[0]
	}

	if scope == "" || scope == bootstrap.ScopeAll {
		return nil, nil
	}
	step, err := provision.ParseStep(scope)
	if err != nil {
		return nil, err
	}
	return []provision.Step{step}, nil
}

func newOCamlCacheKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ocaml-cache-key",
		Short: "Print the cache key for the provisioned OCaml toolchain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := provision.DefaultManifest()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), manifest.OCamlCacheKey(runtime.GOOS, runtime.GOARCH))
			return nil
		},
	}
}
