package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenjin-project/tenjin/pkg/doctor"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the project root and dependency report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newProjectApp(cmd, "status")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "repo root: %s\n", a.root)
			fmt.Fprintf(cmd.OutOrStdout(), "argv[0]:   %s\n", os.Args[0])
			return runCheckDeps(cmd, a, true, false)
		},
	}
}

func newCheckDepsCmd() *cobra.Command {
	var report, fix bool

	cmd := &cobra.Command{
		Use:   "check-deps",
		Short: "Check host tool versions",
		Long: `Check the host tools tenjin relies on. A note is printed when git is older
than 2.36 or clang is older than 18.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newProjectApp(cmd, "check-deps")
			if err != nil {
				return err
			}
			return runCheckDeps(cmd, a, report, fix)
		},
	}

	cmd.Flags().BoolVar(&report, "report", true, "Print detected versions and installed uv tools")
	cmd.Flags().BoolVar(&fix, "fix", false, "Run the suggested install command for each missing tool")
	return cmd
}

func runCheckDeps(cmd *cobra.Command, a *app, report, fix bool) error {
	env := a.env(cmd)
	checker := doctor.NewCheckerWithExecutor(a.exec)
	checker.SetUVPath(env.UVPath())

	groups := checker.CheckAllAsync(cmd.Context())
	summary := checker.GetSummary(groups)
	a.log.WithField("missing", summary.Missing).WithField("warnings", summary.Warnings).Debug("dependency check done")

	for _, note := range doctor.Notes(groups) {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %s\n", note)
	}

	if fix {
		if err := runFixes(cmd, a, groups); err != nil {
			return err
		}
	}

	if !report {
		return nil
	}

	if err := doctor.WriteReport(cmd.OutOrStdout(), groups, summary); err != nil {
		return err
	}

	if !uvInstalled(groups) {
		a.say.Say("", "uv is not installed yet; run `tenjin bootstrap uv` first.")
		return nil
	}
	return env.CheckCallUV(cmd.Context(), "tool", "list")
}

func uvInstalled(groups []doctor.CheckGroup) bool {
	for _, g := range groups {
		for _, c := range g.Checks {
			if c.ID == doctor.IDUV {
				return c.Status == doctor.StatusOK
			}
		}
	}
	return false
}

// runFixes runs the install command of every missing host tool. uv is
// installed by bootstrap, so it only gets a hint.
func runFixes(cmd *cobra.Command, a *app, groups []doctor.CheckGroup) error {
	fixer := doctor.NewFixerWithExecutor(a.exec)
	for _, g := range groups {
		for _, c := range g.Checks {
			if c.Status != doctor.StatusMissing || c.FixCommand == nil {
				continue
			}
			if c.ID == doctor.IDUV {
				a.say.Say("", "Run `"+c.FixCommand.Command+"` to install uv.")
				continue
			}
			a.say.Sayf("", "%s: %s", c.FixCommand.Description, c.FixCommand.Command)
			if err := fixer.RunFix(cmd.Context(), c.FixCommand); err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
		}
	}
	return nil
}
