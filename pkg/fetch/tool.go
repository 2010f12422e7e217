// Package fetch downloads files, either through a system tool (curl or wget)
// or with the native HTTP downloader.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

var (
	// ErrNoFetchTool is returned when neither curl nor wget is on PATH.
	ErrNoFetchTool = errors.New("neither curl nor wget is available")
	// ErrChecksumMismatch is returned when a download does not match its expected SHA-256.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// ToolName identifies a supported fetch tool.
type ToolName string

// Supported tools, in priority order.
const (
	Curl ToolName = "curl"
	Wget ToolName = "wget"
)

// Priority is the order in which tools are probed.
var Priority = []ToolName{Curl, Wget}

// Tool is a detected fetch tool.
type Tool struct {
	Name ToolName
	Path string
}

// Detect returns the first available tool in Priority order.
func Detect(exec runner.Executor) (Tool, error) {
	for _, name := range Priority {
		path, err := exec.LookPath(string(name))
		if err == nil {
			return Tool{Name: name, Path: path}, nil
		}
	}
	return Tool{}, ErrNoFetchTool
}

// Args returns the command-line arguments that fetch url into dest.
func (t Tool) Args(url, dest string) []string {
	switch t.Name {
	case Curl:
		return []string{"--proto", "=https", "--tlsv1.2", "-fLsS", "-o", dest, url}
	case Wget:
		return []string{"-q", "--https-only", "-O", dest, url}
	default:
		return nil
	}
}

// Fetcher downloads url into dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// CommandFetcher fetches with an external tool.
type CommandFetcher struct {
	exec runner.Executor
	tool Tool
}

// NewCommandFetcher creates a fetcher that runs tool through exec.
func NewCommandFetcher(exec runner.Executor, tool Tool) *CommandFetcher {
	return &CommandFetcher{exec: exec, tool: tool}
}

// Tool returns the tool used by the fetcher.
func (f *CommandFetcher) Tool() Tool {
	return f.tool
}

// Fetch runs the tool once; failures are not retried.
func (f *CommandFetcher) Fetch(ctx context.Context, url, dest string) error {
	args := f.tool.Args(url, dest)
	if args == nil {
		return fmt.Errorf("unsupported fetch tool %q", f.tool.Name)
	}

	path := f.tool.Path
	if path == "" {
		path = string(f.tool.Name)
	}

	if err := f.exec.Exec(ctx, runner.Command{Name: path, Args: args}); err != nil {
		return fmt.Errorf("%s failed to fetch %s: %w", f.tool.Name, url, err)
	}
	return nil
}
