package hermetic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

func TestEnv_Paths(t *testing.T) {
	e := New("/repo", &runner.MockExecutor{})

	assert.Equal(t, filepath.Join("/repo", "_local"), e.LocalDir)
	assert.Equal(t, filepath.Join("/repo", "_local", "uv"), e.UVPath())
	assert.Equal(t, filepath.Join("/repo", "_local", "opamroot"), e.OpamRoot())
	assert.Equal(t, filepath.Join("/repo", "_local", "xj-llvm"), e.XJLLVMRoot())
	assert.Equal(t, filepath.Join("/repo", "_local", "xj-build-deps"), e.XJBuildDeps())
}

func TestEnv_UVCommand(t *testing.T) {
	e := New("/repo", &runner.MockExecutor{})

	cmd := e.UVCommand("tool", "list")

	assert.Equal(t, filepath.Join("/repo", "_local", "uv"), cmd.Name)
	assert.Equal(t, []string{"--config-file", filepath.Join("/repo", "_local", "uv.toml"), "tool", "list"}, cmd.Args)
}

func TestEnv_CheckCallUV_Error(t *testing.T) {
	exec := &runner.MockExecutor{ExecFunc: func(runner.Command) error { return errors.New("exit status 1") }}
	e := New("/repo", exec)

	err := e.CheckCallUV(context.Background(), "tool", "run", "ruff", "check")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "uv tool run ruff check")
}

func TestEnv_OpamCommand(t *testing.T) {
	e := New("/repo", &runner.MockExecutor{})

	t.Run("direct", func(t *testing.T) {
		cmd := e.OpamCommand([]string{"init", "--bare"}, false, "OPAMNOENVNOTICE=1")
		assert.Equal(t, e.OpamPath(), cmd.Name)
		assert.Equal(t, []string{"init", "--bare", "--cli=2.3", "--root", e.OpamRoot()}, cmd.Args)
		assert.Equal(t, []string{"OPAMNOENVNOTICE=1"}, cmd.Env)
	})

	t.Run("with env", func(t *testing.T) {
		cmd := e.OpamCommand([]string{"install", "dune"}, true)
		require.Equal(t, "sh", cmd.Name)
		require.Len(t, cmd.Args, 2)
		script := cmd.Args[1]
		assert.Contains(t, script, "eval $(")
		assert.Contains(t, script, "--switch=tenjin --set-switch --set-root")
		assert.Contains(t, script, "install dune --cli=2.3 --switch tenjin")
	})
}

func TestEnv_RunOpam(t *testing.T) {
	exec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return []byte("2.3.0\n"), nil, nil
		},
	}
	e := New("/repo", exec)

	out, err := e.RunOpam(context.Background(), []string{"--version"}, true)

	require.NoError(t, err)
	assert.Equal(t, "2.3.0\n", string(out))
}

func TestEnv_RunGit_Plain(t *testing.T) {
	var echoed bytes.Buffer
	exec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return []byte("out"), []byte("warning: x\n"), exitError(t, 1)
		},
	}
	e := New(t.TempDir(), exec)
	e.SetStderr(&echoed)

	out, err := e.RunGit(context.Background(), []string{"check-ignore", "a"}, false)
	require.NoError(t, err)
	assert.Equal(t, "out", string(out))
	assert.Equal(t, "warning: x\n", echoed.String())
	assert.Equal(t, []string{"git"}, exec.Called())

	_, err = e.CheckOutputGit(context.Background(), "status")
	assert.Error(t, err)
}

func TestEnv_RunGit_JJ(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".jj"), 0755))

	exec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			if cmd.Name == "jj" {
				return []byte("/repo/.jj/repo/store/git\n"), nil, nil
			}
			return []byte("ok"), nil, nil
		},
	}
	e := New(root, exec)

	_, err := e.RunGit(context.Background(), []string{"status"}, true)

	require.NoError(t, err)
	require.Len(t, exec.Calls, 2)
	assert.Equal(t, []string{"--git-dir", "/repo/.jj/repo/store/git", "status"}, exec.Calls[1].Args)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "plain/path-1.0", shellQuote("plain/path-1.0"))
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, "'has space'", shellQuote("has space"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

// exitError returns a real *exec.ExitError with the given status.
func exitError(t *testing.T, code int) error {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	err := osexec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
	require.Error(t, err)
	return err
}

func TestEnv_RunGit_FailsWhenGitCannotRun(t *testing.T) {
	exec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return nil, nil, errors.New(`exec: "git": executable file not found in $PATH`)
		},
	}
	e := New(t.TempDir(), exec)

	_, err := e.RunGit(context.Background(), []string{"check-ignore", "a"}, false)
	assert.Error(t, err)
}

func TestEnv_RunGit_FailsOnFatalExit(t *testing.T) {
	fatal := exitError(t, 128)
	exec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return nil, []byte("fatal: not a git repository\n"), fatal
		},
	}
	e := New(t.TempDir(), exec)
	e.SetStderr(&bytes.Buffer{})

	_, err := e.RunGit(context.Background(), []string{"check-ignore", "a"}, false)
	assert.Error(t, err)
}
