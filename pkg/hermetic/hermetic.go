// Package hermetic runs tools installed into the project-local _local
// directory so that they never pick up user-level configuration.
package hermetic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tenjin-project/tenjin/pkg/project"
	"github.com/tenjin-project/tenjin/pkg/runner"
	"github.com/tenjin-project/tenjin/pkg/uvconfig"
)

const (
	// OpamCLI pins the opam CLI version so flags stay stable.
	OpamCLI = "--cli=2.3"
	// OpamSwitch is the switch created by provisioning.
	OpamSwitch = "tenjin"
)

// Env locates and runs hermetic tools for one project root.
type Env struct {
	Root     string
	LocalDir string
	exec     runner.Executor
	stderr   io.Writer
}

// New creates an Env for root.
func New(root string, exec runner.Executor) *Env {
	return &Env{
		Root:     root,
		LocalDir: project.LocalDir(root),
		exec:     exec,
		stderr:   os.Stderr,
	}
}

// SetStderr sets where captured tool stderr is echoed.
func (e *Env) SetStderr(w io.Writer) {
	e.stderr = w
}

// Executor returns the executor used by the Env.
func (e *Env) Executor() runner.Executor {
	return e.exec
}

// UVPath returns the installed uv binary.
func (e *Env) UVPath() string {
	return filepath.Join(e.LocalDir, "uv")
}

// UVCommand builds a uv invocation pinned to _local/uv.toml.
// Keep in sync with the flags bootstrap writes the config for.
func (e *Env) UVCommand(args ...string) runner.Command {
	full := append([]string{"--config-file", uvconfig.Path(e.LocalDir)}, args...)
	return runner.Command{Name: e.UVPath(), Args: full, Dir: e.Root}
}

// CheckCallUV runs uv with inherited stdio and fails on non-zero exit.
func (e *Env) CheckCallUV(ctx context.Context, args ...string) error {
	cmd := e.UVCommand(args...)
	if err := e.exec.Exec(ctx, cmd); err != nil {
		return fmt.Errorf("uv %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// XJBuildDeps returns the directory holding prebuilt build dependencies.
func (e *Env) XJBuildDeps() string {
	return filepath.Join(e.LocalDir, "xj-build-deps")
}

// XJLLVMRoot returns the directory holding the hermetic LLVM toolchain.
func (e *Env) XJLLVMRoot() string {
	return filepath.Join(e.LocalDir, "xj-llvm")
}

// OpamPath returns the local opam binary.
func (e *Env) OpamPath() string {
	return filepath.Join(e.LocalDir, "opam")
}

// OpamRoot returns the local opam root.
func (e *Env) OpamRoot() string {
	return filepath.Join(e.LocalDir, "opamroot")
}

// OpamCommand builds an opam invocation. With evalEnv the command runs in a
// shell after evaluating `opam env` for the tenjin switch; without it (for
// `opam init`, before any switch exists) opam runs directly.
func (e *Env) OpamCommand(args []string, evalEnv bool, env ...string) runner.Command {
	if !evalEnv {
		full := append(append([]string{}, args...), OpamCLI, "--root", e.OpamRoot())
		return runner.Command{Name: e.OpamPath(), Args: full, Dir: e.Root, Env: env}
	}

	envCmd := shellJoin([]string{
		e.OpamPath(), "env", OpamCLI, "--root", e.OpamRoot(),
		"--switch=" + OpamSwitch, "--set-switch", "--set-root",
	})
	mainCmd := shellJoin(append(append([]string{e.OpamPath()}, args...),
		OpamCLI, "--switch", OpamSwitch, "--root", e.OpamRoot()))

	return runner.Command{
		Name: "sh",
		Args: []string{"-c", fmt.Sprintf("eval $(%s) && %s", envCmd, mainCmd)},
		Dir:  e.Root,
		Env:  env,
	}
}

// RunOpam runs opam and returns its stdout.
func (e *Env) RunOpam(ctx context.Context, args []string, evalEnv bool) ([]byte, error) {
	stdout, stderr, err := e.exec.Output(ctx, e.OpamCommand(args, evalEnv))
	if err != nil {
		return stdout, fmt.Errorf("opam %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(stderr)))
	}
	return stdout, nil
}

// CheckCallOpam runs opam with inherited stdio.
func (e *Env) CheckCallOpam(ctx context.Context, args []string, evalEnv bool, env ...string) error {
	if err := e.exec.Exec(ctx, e.OpamCommand(args, evalEnv, env...)); err != nil {
		return fmt.Errorf("opam %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// RunGit runs git and returns stdout. Captured stderr is echoed. When the
// repository is managed by jj, git is pointed at jj's backing repository.
// A non-zero exit is only an error when check is set; failing to run git
// at all, or a fatal git exit, is always an error.
func (e *Env) RunGit(ctx context.Context, args []string, check bool) ([]byte, error) {
	gitArgs := args
	if info, err := os.Stat(filepath.Join(e.Root, ".jj")); err == nil && info.IsDir() {
		out, stderr, err := e.exec.Output(ctx, runner.Command{Name: "jj", Args: []string{"git", "root"}, Dir: e.Root})
		if err != nil {
			return nil, fmt.Errorf("jj git root: %w: %s", err, strings.TrimSpace(string(stderr)))
		}
		gitArgs = append([]string{"--git-dir", strings.TrimSpace(string(out))}, args...)
	}

	stdout, stderr, err := e.exec.Output(ctx, runner.Command{Name: "git", Args: gitArgs, Dir: e.Root})
	if len(bytes.TrimSpace(stderr)) > 0 && e.stderr != nil {
		e.stderr.Write(stderr)
	}
	if err != nil && (check || !isGitStatus(err)) {
		return stdout, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout, nil
}

// isGitStatus reports whether err is an ordinary git exit status. A git
// that could not start, or died with 128 (not a repository, bad usage),
// is a failure even when the status is not checked.
func isGitStatus(err error) bool {
	code := runner.ExitCode(err)
	return code > 0 && code != 128
}

// CheckOutputGit is RunGit with check enabled.
func (e *Env) CheckOutputGit(ctx context.Context, args ...string) ([]byte, error) {
	return e.RunGit(ctx, args, true)
}

// shellJoin quotes each word for sh.
func shellJoin(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = shellQuote(w)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=+:,@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
