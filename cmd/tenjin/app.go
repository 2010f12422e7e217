package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tenjin-project/tenjin/pkg/config"
	"github.com/tenjin-project/tenjin/pkg/hermetic"
	"github.com/tenjin-project/tenjin/pkg/logging"
	"github.com/tenjin-project/tenjin/pkg/project"
	"github.com/tenjin-project/tenjin/pkg/runner"
	"github.com/tenjin-project/tenjin/pkg/sez"
)

// newExecutor is replaced in tests.
var newExecutor = func() runner.Executor {
	return &runner.RealExecutor{}
}

// app carries what every command needs.
type app struct {
	root     string
	settings *config.Settings
	log      *logrus.Entry
	say      *sez.Sayer
	exec     runner.Executor
}

// newApp loads settings from dir and sets up logging and output for one
// command invocation.
func newApp(cmd *cobra.Command, action, dir string) (*app, error) {
	settings, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Value.String() != "" {
		settings.LogLevel = flag.Value.String()
	}

	logger, err := logging.New(logging.Options{
		Level:      settings.LogLevel,
		File:       settings.LogFile,
		MaxSizeMB:  settings.LogMaxSize,
		MaxBackups: settings.LogMaxBackups,
		Compress:   settings.LogCompress,
	}, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	a := &app{
		root:     dir,
		settings: settings,
		log:      logger.WithFields(logging.BaseFields(action, logging.NewRunID())),
		say:      sez.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		exec:     newExecutor(),
	}
	a.log.WithField("root", dir).Debug("command started")
	return a, nil
}

// newProjectApp is newApp for commands that run anywhere inside the project.
func newProjectApp(cmd *cobra.Command, action string) (*app, error) {
	root, err := project.FindRoot()
	if err != nil {
		return nil, fmt.Errorf("could not find project root: %w", err)
	}
	return newApp(cmd, action, root)
}

// env returns the hermetic tool environment with stderr routed to the command.
func (a *app) env(cmd *cobra.Command) *hermetic.Env {
	env := hermetic.New(a.root, a.exec)
	env.SetStderr(cmd.ErrOrStderr())
	return env
}

func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}
