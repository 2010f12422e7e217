// Package bootstrap installs uv into the project-local install root and
// hands off to the downstream provisioning command.
//
// The sequence is strictly linear and every failure is fatal: verify the
// working directory, detect curl or wget, download the installer, run it
// into _local, write _local/uv.toml, check `uv --version`, then either run
// the downstream command or tell the user to.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tenjin-project/tenjin/pkg/fetch"
	"github.com/tenjin-project/tenjin/pkg/project"
	"github.com/tenjin-project/tenjin/pkg/runner"
	"github.com/tenjin-project/tenjin/pkg/sez"
	"github.com/tenjin-project/tenjin/pkg/uvconfig"
)

// Provisioning scope tokens.
const (
	// ScopeAll provisions everything and is the default.
	ScopeAll = "all"
	// ScopeUV stops after uv is installed.
	ScopeUV = "uv"
)

// Installer environment. Both are set by bootstrap, never inherited.
const (
	EnvInstallDir = "UV_UNMANAGED_INSTALL"
	EnvQuiet      = "UV_PRINT_QUIET"
)

const (
	// InstallerFileName is where the installer is saved inside _local.
	InstallerFileName = "uv-installer.sh"
	// BinaryName is the installed uv executable.
	BinaryName = "uv"
)

const sayCtx = "(uv) "

// Options configures one bootstrap run.
type Options struct {
	Dir          string   // Working directory, must be the project root
	Scope        string   // Provisioning scope token, defaults to ScopeAll
	InstallerURL string   // Installer to fetch
	Downstream   []string // Downstream command, first element relative to Dir
}

// Result describes a successful run.
type Result struct {
	Root      string
	LocalDir  string
	Tool      fetch.Tool
	UVVersion string
	HandedOff bool
}

// Bootstrapper runs the bootstrap sequence.
type Bootstrapper struct {
	exec       runner.Executor
	say        *sez.Sayer
	log        logrus.FieldLogger
	newFetcher func(tool fetch.Tool) fetch.Fetcher
}

// New creates a Bootstrapper that fetches with the detected system tool.
func New(exec runner.Executor, say *sez.Sayer, log logrus.FieldLogger) *Bootstrapper {
	b := &Bootstrapper{exec: exec, say: say, log: log}
	b.newFetcher = func(tool fetch.Tool) fetch.Fetcher {
		return fetch.NewCommandFetcher(b.exec, tool)
	}
	return b
}

// SetFetcherFactory replaces how a Fetcher is built from the detected tool.
func (b *Bootstrapper) SetFetcherFactory(f func(tool fetch.Tool) fetch.Fetcher) {
	b.newFetcher = f
}

// NormalizeScope returns the scope token, defaulting to ScopeAll.
func NormalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return ScopeAll
	}
	return scope
}

// Run executes the bootstrap. It stops at the first failing step and
// leaves whatever was already written in place.
func (b *Bootstrapper) Run(ctx context.Context, opts Options) (*Result, error) {
	scope := NormalizeScope(opts.Scope)

	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, stepErr(StepVerifyRoot, ErrWrongDirectory, err)
	}
	if err := project.VerifyRoot(root); err != nil {
		return nil, stepErr(StepVerifyRoot, ErrWrongDirectory, err)
	}

	tool, err := fetch.Detect(b.exec)
	if err != nil {
		return nil, stepErr(StepDetectTool, ErrNoFetchTool, nil)
	}
	b.log.WithFields(logrus.Fields{"tool": tool.Name, "path": tool.Path}).Debug("detected fetch tool")

	result := &Result{
		Root:     root,
		LocalDir: project.LocalDir(root),
		Tool:     tool,
	}

	if err := os.MkdirAll(result.LocalDir, 0755); err != nil {
		return nil, stepErr(StepPrepare, ErrPrepare, err)
	}

	installer := filepath.Join(result.LocalDir, InstallerFileName)
	b.say.Sayf(sayCtx, "Downloading uv installer with %s...", tool.Name)
	if err := b.newFetcher(tool).Fetch(ctx, opts.InstallerURL, installer); err != nil {
		return nil, stepErr(StepDownload, ErrDownload, err)
	}

	b.say.Say(sayCtx, "Installing uv into "+result.LocalDir+"...")
	err = b.exec.Exec(ctx, runner.Command{
		Name: "sh",
		Args: []string{installer},
		Dir:  root,
		Env:  InstallerEnv(result.LocalDir),
	})
	if err != nil {
		return nil, stepErr(StepInstall, ErrInstall, err)
	}

	cfgPath := uvconfig.Path(result.LocalDir)
	if err := uvconfig.Write(cfgPath, uvconfig.ForLocalDir(result.LocalDir)); err != nil {
		return nil, stepErr(StepConfigure, ErrConfig, err)
	}
	b.log.WithField("path", cfgPath).Debug("wrote uv configuration")

	uvBin := filepath.Join(result.LocalDir, BinaryName)
	out, err := b.exec.Run(ctx, uvBin, "--version")
	if err != nil {
		return nil, stepErr(StepVerify, ErrVerify, fmt.Errorf("%s --version: %w", uvBin, err))
	}
	result.UVVersion = strings.TrimSpace(out)
	b.say.Say(sayCtx, "Installed "+result.UVVersion)

	if scope == ScopeUV {
		manual := append(append([]string{}, opts.Downstream...), ScopeAll)
		b.say.Say(sayCtx, "Only uv was requested. To finish provisioning, run:")
		b.say.Say(sayCtx, "    "+strings.Join(manual, " "))
		return result, nil
	}

	downstream, err := resolveDownstream(root, opts.Downstream, scope)
	if err != nil {
		return nil, stepErr(StepHandoff, ErrHandoff, err)
	}

	b.log.WithFields(logrus.Fields{"command": downstream.String(), "scope": scope}).Info("handing off")
	if err := b.exec.Exec(ctx, downstream); err != nil {
		return nil, stepErr(StepHandoff, ErrHandoff, err)
	}
	result.HandedOff = true

	return result, nil
}

// InstallerEnv returns the environment overrides for the installer.
func InstallerEnv(localDir string) []string {
	return []string{
		EnvInstallDir + "=" + localDir,
		EnvQuiet + "=1",
	}
}

func resolveDownstream(root string, downstream []string, scope string) (runner.Command, error) {
	if len(downstream) == 0 || downstream[0] == "" {
		return runner.Command{}, fmt.Errorf("no downstream command configured")
	}

	name := downstream[0]
	if !filepath.IsAbs(name) && strings.ContainsRune(name, '/') {
		name = filepath.Join(root, filepath.FromSlash(name))
	}

	args := append(append([]string{}, downstream[1:]...), scope)
	return runner.Command{Name: name, Args: args, Dir: root}, nil
}
