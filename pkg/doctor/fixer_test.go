package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

func TestNewFixer(t *testing.T) {
	fixer := NewFixer()
	assert.NotNil(t, fixer)
	assert.NotNil(t, fixer.executor)
}

func TestNewFixerWithExecutor(t *testing.T) {
	mockExec := &runner.MockExecutor{}
	fixer := NewFixerWithExecutor(mockExec)
	assert.NotNil(t, fixer)
	assert.Equal(t, mockExec, fixer.executor)
}

func TestFixer_RunFix_Success(t *testing.T) {
	mockExec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			assert.Equal(t, "sh", cmd.Name)
			assert.Equal(t, []string{"-c", "echo hello"}, cmd.Args)
			return []byte("hello\n"), nil, nil
		},
	}

	fixer := NewFixerWithExecutor(mockExec)
	fix := &FixCommand{
		Command:     "echo hello",
		Description: "Test command",
	}

	err := fixer.RunFix(context.Background(), fix)
	assert.NoError(t, err)
	require.Len(t, mockExec.Calls, 1)
}

func TestFixer_RunFix_Failure(t *testing.T) {
	mockExec := &runner.MockExecutor{
		OutputFunc: func(cmd runner.Command) ([]byte, []byte, error) {
			return nil, []byte("command not found"), errors.New("exit status 127")
		},
	}

	fixer := NewFixerWithExecutor(mockExec)
	fix := &FixCommand{
		Command:     "nonexistent-command",
		Description: "Test command",
	}

	err := fixer.RunFix(context.Background(), fix)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fix failed")
	assert.Contains(t, err.Error(), "command not found")
}

func TestFixer_RunFix_NilFix(t *testing.T) {
	fixer := NewFixer()

	err := fixer.RunFix(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no fix command available")
}

func TestGetFixCommand_AllPlatforms(t *testing.T) {
	tests := []struct {
		toolID      string
		platform    string
		expectNil   bool
		expectSudo  bool
		containsCmd string
	}{
		{IDGit, PlatformDarwin, false, false, "brew install git"},
		{IDGit, PlatformLinux, false, true, "apt install -y git"},
		{IDGit, "windows", true, false, ""},

		{IDClang, PlatformDarwin, false, false, "llvm@18"},
		{IDClang, PlatformLinux, false, true, "clang-18"},

		{IDCurl, PlatformLinux, false, true, "curl"},
		{IDWget, PlatformDarwin, false, false, "brew install wget"},

		{IDOpam, PlatformLinux, false, true, "opam"},

		// Same fix everywhere
		{IDUV, PlatformDarwin, false, false, "tenjin bootstrap uv"},
		{IDUV, PlatformLinux, false, false, "tenjin bootstrap uv"},

		{"unknown-tool", PlatformDarwin, true, false, ""},
		{"unknown-tool", PlatformLinux, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.toolID+"_"+tt.platform, func(t *testing.T) {
			fix := GetFixCommand(tt.toolID, tt.platform)

			if tt.expectNil {
				assert.Nil(t, fix)
				return
			}
			require.NotNil(t, fix)
			assert.Equal(t, tt.expectSudo, fix.Sudo)
			assert.Contains(t, fix.Command, tt.containsCmd)
			assert.NotEmpty(t, fix.Description)
		})
	}
}

func TestFixCommand_LinuxSudo(t *testing.T) {
	fix := GetFixCommand(IDClang, PlatformLinux)

	require.NotNil(t, fix)
	assert.True(t, fix.Sudo)
	assert.Contains(t, fix.Command, "sudo")
	assert.Equal(t, PlatformLinux, fix.Platform)
}
