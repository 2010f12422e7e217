package doctor

import (
	"context"
	"fmt"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

// Platform constants.
const (
	PlatformDarwin = "darwin"
	PlatformLinux  = "linux"
)

// fixCommands defines platform-specific fix commands for each tool.
// The "" key applies to every platform.
var fixCommands = map[string]map[string]*FixCommand{
	IDGit: {
		PlatformDarwin: {
			Description: "Install via Homebrew",
			Command:     "brew install git",
			Platform:    PlatformDarwin,
		},
		PlatformLinux: {
			Description: "Install via apt",
			Command:     "sudo apt install -y git",
			Sudo:        true,
			Platform:    PlatformLinux,
		},
	},
	IDClang: {
		PlatformDarwin: {
			Description: "Install LLVM 18 via Homebrew",
			Command:     "brew install llvm@18",
			Platform:    PlatformDarwin,
		},
		PlatformLinux: {
			Description: "Install clang 18 via apt",
			Command:     "sudo apt install -y clang-18",
			Sudo:        true,
			Platform:    PlatformLinux,
		},
	},
	IDCurl: {
		PlatformDarwin: {
			Description: "Install via Homebrew",
			Command:     "brew install curl",
			Platform:    PlatformDarwin,
		},
		PlatformLinux: {
			Description: "Install via apt",
			Command:     "sudo apt install -y curl",
			Sudo:        true,
			Platform:    PlatformLinux,
		},
	},
	IDWget: {
		PlatformDarwin: {
			Description: "Install via Homebrew",
			Command:     "brew install wget",
			Platform:    PlatformDarwin,
		},
		PlatformLinux: {
			Description: "Install via apt",
			Command:     "sudo apt install -y wget",
			Sudo:        true,
			Platform:    PlatformLinux,
		},
	},
	IDOpam: {
		PlatformDarwin: {
			Description: "Install via Homebrew",
			Command:     "brew install opam",
			Platform:    PlatformDarwin,
		},
		PlatformLinux: {
			Description: "Install via apt",
			Command:     "sudo apt install -y opam bubblewrap",
			Sudo:        true,
			Platform:    PlatformLinux,
		},
	},
	IDUV: {
		"": {
			Description: "Install uv into _local",
			Command:     "tenjin bootstrap uv",
		},
	},
}

// GetFixCommand returns the fix command for a tool on the given platform.
func GetFixCommand(toolID, platform string) *FixCommand {
	toolFixes, ok := fixCommands[toolID]
	if !ok {
		return nil
	}

	if fix, ok := toolFixes[platform]; ok {
		return fix
	}
	return toolFixes[""]
}

// Fixer provides functionality to run fix commands.
type Fixer struct {
	executor runner.Executor
}

// NewFixer creates a new Fixer.
func NewFixer() *Fixer {
	return &Fixer{
		executor: &runner.RealExecutor{},
	}
}

// NewFixerWithExecutor creates a new Fixer with a custom executor.
func NewFixerWithExecutor(exec runner.Executor) *Fixer {
	return &Fixer{
		executor: exec,
	}
}

// RunFix executes a fix command.
func (f *Fixer) RunFix(ctx context.Context, fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	stdout, stderr, err := f.executor.Output(ctx, runner.Command{Name: "sh", Args: []string{"-c", fix.Command}})
	if err != nil {
		return fmt.Errorf("fix failed: %w\nOutput: %s%s", err, string(stdout), string(stderr))
	}

	return nil
}
