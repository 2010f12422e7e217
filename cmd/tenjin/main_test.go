package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenjin-project/tenjin/pkg/bootstrap"
	"github.com/tenjin-project/tenjin/pkg/project"
	"github.com/tenjin-project/tenjin/pkg/provision"
	"github.com/tenjin-project/tenjin/pkg/repocheck"
	"github.com/tenjin-project/tenjin/pkg/runner"
	"github.com/tenjin-project/tenjin/pkg/uvconfig"
)

// newProjectDir creates a project root and makes it the working directory.
func newProjectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	marker := filepath.Join(root, filepath.FromSlash(project.MarkerPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0755))
	require.NoError(t, os.WriteFile(marker, []byte("#!/bin/sh\n"), 0755))

	// Resolve symlinks so paths compare equal to os.Getwd on macOS
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	chdir(t, resolved)
	return resolved
}

func useExecutor(t *testing.T, exec runner.Executor) {
	t.Helper()
	orig := newExecutor
	newExecutor = func() runner.Executor { return exec }
	t.Cleanup(func() { newExecutor = orig })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("TENJIN_LOG_LEVEL", "error")

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	rootCmd := newRootCmd()

	assert.Equal(t, "tenjin", rootCmd.Use)
	assert.Equal(t, "Tenjin project bootstrap and maintenance tool", rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmdHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "tenjin")
	for _, name := range []string{"bootstrap", "check-deps", "provision", "check-py", "fmt-py", "check-repo-file-sizes", "check-star", "ocaml-cache-key"} {
		assert.Contains(t, out, name)
	}
}

func TestRootCmdVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "tenjin version")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))

	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	for _, code := range []int{3, 22} {
		childErr := osexec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
		require.Error(t, childErr)
		require.Equal(t, code, runner.ExitCode(childErr))

		err := &bootstrap.StepError{Step: bootstrap.StepInstall, Kind: bootstrap.ErrInstall, Err: childErr}
		assert.Equal(t, 1, exitCode(err), "child exit %d", code)
	}
}

func TestBootstrapCmd_WrongDirectory(t *testing.T) {
	chdir(t, t.TempDir())
	exec := &runner.MockExecutor{}
	useExecutor(t, exec)

	_, _, err := execute(t, "bootstrap")
	require.Error(t, err)
	assert.Empty(t, exec.Calls)
}

func TestBootstrapCmd_WrongDirectoryWritesNothing(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("TENJIN_LOG_FILE", filepath.Join("logs", "tenjin.log"))
	useExecutor(t, &runner.MockExecutor{})

	_, _, err := execute(t, "bootstrap")
	require.ErrorIs(t, err, bootstrap.ErrWrongDirectory)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBootstrapCmd_UVScope(t *testing.T) {
	root := newProjectDir(t)
	exec := &runner.MockExecutor{
		LookPathFunc: func(file string) (string, error) {
			if file == "curl" {
				return "/usr/bin/curl", nil
			}
			return "", errors.New("not found")
		},
		RunFunc: func(string, ...string) (string, error) { return "uv 0.7.2\n", nil },
	}
	useExecutor(t, exec)

	out, _, err := execute(t, "bootstrap", "uv")
	require.NoError(t, err)

	assert.Contains(t, out, "Installed uv 0.7.2")
	assert.Contains(t, out, "cli/10j provision all")
	assert.Equal(t, []string{"/usr/bin/curl", "sh", filepath.Join(root, "_local", "uv")}, exec.Called())

	cfg, err := uvconfig.Read(uvconfig.Path(filepath.Join(root, "_local")))
	require.NoError(t, err)
	assert.False(t, cfg.Package)
}

func TestBootstrapCmd_TooManyArgs(t *testing.T) {
	newProjectDir(t)
	useExecutor(t, &runner.MockExecutor{})

	_, _, err := execute(t, "bootstrap", "uv", "extra")
	assert.Error(t, err)
}

func TestCheckDepsCmd(t *testing.T) {
	root := newProjectDir(t)
	uv := filepath.Join(root, "_local", "uv")
	exec := &runner.MockExecutor{
		RunFunc: func(name string, args ...string) (string, error) {
			switch name {
			case "/usr/bin/git":
				return "git version 2.30.1\n", nil
			case "/usr/bin/clang":
				return "clang version 18.1.8\n", nil
			case uv:
				return "uv 0.7.2\n", nil
			}
			return name + " 1.0.0\n", nil
		},
	}
	useExecutor(t, exec)

	out, _, err := execute(t, "check-deps")
	require.NoError(t, err)

	assert.Contains(t, out, "Note: git version 2.36 or later is required")
	assert.NotContains(t, out, "Note: clang")

	var listed bool
	for _, c := range exec.Calls {
		if c.Name == uv && strings.Join(c.Args, " ") == "--config-file "+filepath.Join(root, "_local", "uv.toml")+" tool list" {
			listed = true
		}
	}
	assert.True(t, listed, "expected uv tool list to run")
}

func TestCheckDepsCmd_WithoutUV(t *testing.T) {
	newProjectDir(t)
	exec := &runner.MockExecutor{
		FileExistsFunc: func(string) bool { return false },
		RunFunc:        func(string, ...string) (string, error) { return "git version 2.40.0\n", nil },
	}
	useExecutor(t, exec)

	out, _, err := execute(t, "check-deps")
	require.NoError(t, err)
	assert.Contains(t, out, "tenjin bootstrap uv")
}

func TestCheckDepsCmd_Fix(t *testing.T) {
	newProjectDir(t)
	exec := &runner.MockExecutor{
		LookPathFunc: func(file string) (string, error) {
			if file == "git" {
				return "", errors.New("not found")
			}
			return "/usr/bin/" + file, nil
		},
		RunFunc: func(string, ...string) (string, error) { return "version 99.0.0\n", nil },
	}
	useExecutor(t, exec)

	_, _, err := execute(t, "check-deps", "--fix", "--report=false")
	require.NoError(t, err)

	var fixed bool
	for _, c := range exec.Calls {
		if c.Name == "sh" && len(c.Args) == 2 && strings.Contains(c.Args[1], "install") && strings.HasSuffix(c.Args[1], " git") {
			fixed = true
		}
	}
	assert.True(t, fixed, "expected git install command to run")
}

func TestCheckPyCmd(t *testing.T) {
	root := newProjectDir(t)
	exec := &runner.MockExecutor{}
	useExecutor(t, exec)

	_, _, err := execute(t, "check-py")
	require.NoError(t, err)

	require.Len(t, exec.Calls, 2)
	assert.Equal(t, filepath.Join(root, "_local", "uv"), exec.Calls[0].Name)
	assert.Contains(t, strings.Join(exec.Calls[0].Args, " "), "tool run -vv ruff check --quiet")
	assert.Contains(t, strings.Join(exec.Calls[1].Args, " "), "tool run -vv ruff format --check")
}

func TestCheckPyCmd_StopsOnLintFailure(t *testing.T) {
	newProjectDir(t)
	exec := &runner.MockExecutor{
		ExecFunc: func(runner.Command) error { return errors.New("exit status 1") },
	}
	useExecutor(t, exec)

	_, _, err := execute(t, "check-py")
	require.Error(t, err)
	assert.Len(t, exec.Calls, 1)
}

func TestFmtPyCmd(t *testing.T) {
	newProjectDir(t)
	exec := &runner.MockExecutor{}
	useExecutor(t, exec)

	_, _, err := execute(t, "fmt-py")
	require.NoError(t, err)
	require.Len(t, exec.Calls, 1)
	assert.True(t, strings.HasSuffix(strings.Join(exec.Calls[0].Args, " "), "tool run -vv ruff format"))
}

func TestCheckRepoFileSizesCmd_LargeFile(t *testing.T) {
	root := newProjectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.bin"), make([]byte, 2048), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tenjin.yaml"), []byte("large_file_limit: 1024\n"), 0644))

	exec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			// git check-ignore --verbose --non-matching: "::" means not ignored
			return []byte("::\t" + filepath.Join(root, "big.bin") + "\n"), nil, nil
		},
	}
	useExecutor(t, exec)

	_, stderr, err := execute(t, "check-repo-file-sizes")
	require.ErrorIs(t, err, repocheck.ErrLargeFiles)
	assert.Contains(t, stderr, "ERROR: Unexpected large files:")
	assert.Contains(t, stderr, "\t"+filepath.Join(root, "big.bin"))
}

func TestCheckRepoFileSizesCmd_GitUnavailable(t *testing.T) {
	root := newProjectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.bin"), make([]byte, 2048), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tenjin.yaml"), []byte("large_file_limit: 1024\n"), 0644))

	useExecutor(t, &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return nil, nil, errors.New(`exec: "git": executable file not found in $PATH`)
		},
	})

	_, _, err := execute(t, "check-repo-file-sizes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git check-ignore")
}

func TestCheckRepoFileSizesCmd_Clean(t *testing.T) {
	newProjectDir(t)
	useExecutor(t, &runner.MockExecutor{})

	_, stderr, err := execute(t, "check-repo-file-sizes")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "ERROR")
}

func TestCheckStarCmd_CollectsFailures(t *testing.T) {
	root := newProjectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.bin"), make([]byte, 2048), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tenjin.yaml"), []byte("large_file_limit: 1024\n"), 0644))

	exec := &runner.MockExecutor{
		ExecFunc: func(runner.Command) error { return errors.New("ruff failed") },
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return []byte("::\t" + filepath.Join(root, "big.bin") + "\n"), nil, nil
		},
	}
	useExecutor(t, exec)

	_, _, err := execute(t, "check-star")
	require.Error(t, err)
	assert.ErrorIs(t, err, repocheck.ErrLargeFiles)
	assert.Contains(t, err.Error(), "ruff failed")
}

func TestProvisionCmd_UnknownStep(t *testing.T) {
	newProjectDir(t)
	exec := &runner.MockExecutor{}
	useExecutor(t, exec)

	_, _, err := execute(t, "provision", "--only", "rust")
	require.Error(t, err)
	assert.Empty(t, exec.Calls)
}

func TestProvisionCmd_UnknownScope(t *testing.T) {
	newProjectDir(t)
	exec := &runner.MockExecutor{}
	useExecutor(t, exec)

	_, _, err := execute(t, "provision", "rust")
	require.Error(t, err)
	assert.Empty(t, exec.Calls)
}

func TestSelectSteps(t *testing.T) {
	tests := []struct {
		name    string
		only    string
		args    []string
		want    []provision.Step
		wantErr bool
	}{
		{name: "default", want: nil},
		{name: "all scope", args: []string{"all"}, want: nil},
		{name: "step scope", args: []string{"llvm"}, want: []provision.Step{provision.StepLLVM}},
		{name: "only flag", only: "opam", want: []provision.Step{provision.StepOpam}},
		{name: "flag and scope agree", only: "cmake", args: []string{"cmake"}, want: []provision.Step{provision.StepCMake}},
		{name: "flag and scope conflict", only: "cmake", args: []string{"llvm"}, wantErr: true},
		{name: "unknown scope", args: []string{"uv"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSteps(tt.only, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOCamlCacheKeyCmd(t *testing.T) {
	out, _, err := execute(t, "ocaml-cache-key")
	require.NoError(t, err)

	key := strings.TrimSpace(out)
	assert.Contains(t, key, "ocaml-")
	assert.Contains(t, key, "opam-")
	assert.Contains(t, key, "dune-")
}

func TestStatusCmd(t *testing.T) {
	root := newProjectDir(t)
	useExecutor(t, &runner.MockExecutor{})

	out, _, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "repo root: "+root)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}
