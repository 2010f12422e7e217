// Package runner wraps process execution behind an interface so that
// commands which shell out can be tested without touching the system.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes a child process.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is appended to the parent environment.
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Executor is an interface for executing commands, allowing for testing.
type Executor interface {
	LookPath(file string) (string, error)
	// Run executes a command and returns its output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// Exec runs cmd with the writers it carries, os.Stdout/os.Stderr when nil.
	Exec(ctx context.Context, cmd Command) error
	// Output runs cmd and returns stdout and stderr separately.
	Output(ctx context.Context, cmd Command) (stdout, stderr []byte, err error)
	FileExists(path string) bool
}

// RealExecutor is the default command executor that uses the real system.
type RealExecutor struct{}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *RealExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		// Some tools output version to stderr
		if stderr.Len() > 0 {
			return stderr.String(), err
		}
		return stdout.String(), err
	}
	// Prefer stdout, fall back to stderr (some tools output version to stderr)
	output := stdout.String()
	if output == "" {
		output = stderr.String()
	}
	return output, nil
}

// Exec runs a command with inherited or provided stdio.
func (e *RealExecutor) Exec(ctx context.Context, c Command) error {
	cmd := build(ctx, c)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// Output runs a command and captures stdout and stderr.
func (e *RealExecutor) Output(ctx context.Context, c Command) ([]byte, []byte, error) {
	cmd := build(ctx, c)
	cmd.Stdin = c.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// FileExists checks if a file exists.
func (e *RealExecutor) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func build(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// ExitCode extracts the exit status from an error returned by Exec or Output.
// It returns -1 when the error is not an exit error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
