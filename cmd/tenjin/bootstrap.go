package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tenjin-project/tenjin/pkg/bootstrap"
	"github.com/tenjin-project/tenjin/pkg/project"
)

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap [scope]",
		Short: "Install uv into _local and hand off to provisioning",
		Long: `Install uv into the project-local _local/ directory, write _local/uv.toml,
verify the installed binary and then run the downstream provisioning command
with the given scope (default "all").

The scope "uv" stops after uv is installed and prints the command to run next.

Must be run from the project root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBootstrap,
	}
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cwd, err := workingDir()
	if err != nil {
		return err
	}

	// Nothing is read or written, logs included, until cwd is known to be the root
	if err := project.VerifyRoot(cwd); err != nil {
		return &bootstrap.StepError{Step: bootstrap.StepVerifyRoot, Kind: bootstrap.ErrWrongDirectory, Err: err}
	}

	a, err := newApp(cmd, "bootstrap", cwd)
	if err != nil {
		return err
	}

	scope := ""
	if len(args) > 0 {
		scope = args[0]
	}

	b := bootstrap.New(a.exec, a.say, a.log)
	result, err := b.Run(cmd.Context(), bootstrap.Options{
		Dir:          cwd,
		Scope:        scope,
		InstallerURL: a.settings.InstallerURL,
		Downstream:   a.settings.DownstreamCommand,
	})
	if err != nil {
		a.log.WithError(err).Error("bootstrap failed")
		return err
	}

	a.log.WithFields(logrus.Fields{
		"uv_version": result.UVVersion,
		"tool":       result.Tool.Name,
		"handed_off": result.HandedOff,
	}).Info("bootstrap finished")
	return nil
}
