package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/tenjin-project/tenjin/pkg/hermetic"
	"github.com/tenjin-project/tenjin/pkg/repocheck"
)

func newFmtPyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt-py",
		Short: "Format Python sources with ruff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newProjectApp(cmd, "fmt-py")
			if err != nil {
				return err
			}
			return a.env(cmd).CheckCallUV(cmd.Context(), "tool", "run", "-vv", "ruff", "format")
		},
	}
}

func newCheckPyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-py",
		Short: "Lint and format-check Python sources with ruff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newProjectApp(cmd, "check-py")
			if err != nil {
				return err
			}
			return checkPy(cmd.Context(), a.env(cmd))
		},
	}
}

func newCheckRepoFileSizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-repo-file-sizes",
		Short: "Fail if large files exist that git does not ignore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newProjectApp(cmd, "check-repo-file-sizes")
			if err != nil {
				return err
			}
			return checkFileSizes(cmd, a)
		},
	}
}

func newCheckStarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-star",
		Short: "Run every repository check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newProjectApp(cmd, "check-star")
			if err != nil {
				return err
			}

			var result *multierror.Error
			if err := checkPy(cmd.Context(), a.env(cmd)); err != nil {
				result = multierror.Append(result, err)
			}
			if err := checkFileSizes(cmd, a); err != nil {
				result = multierror.Append(result, err)
			}
			return result.ErrorOrNil()
		},
	}
}

func checkPy(ctx context.Context, env *hermetic.Env) error {
	if err := env.CheckCallUV(ctx, "tool", "run", "-vv", "ruff", "check", "--quiet"); err != nil {
		return err
	}
	return env.CheckCallUV(ctx, "tool", "run", "-vv", "ruff", "format", "--check")
}

func checkFileSizes(cmd *cobra.Command, a *app) error {
	checker := repocheck.New(a.root, a.env(cmd), a.log)
	checker.SetMaxFileSize(a.settings.LargeFileLimit)

	err := checker.Check(cmd.Context())
	var large *repocheck.LargeFilesError
	if errors.As(err, &large) {
		fmt.Fprintln(cmd.ErrOrStderr(), "ERROR: Unexpected large files:")
		for _, p := range large.Paths {
			fmt.Fprintln(cmd.ErrOrStderr(), "\t"+p)
		}
		return repocheck.ErrLargeFiles
	}
	return err
}
