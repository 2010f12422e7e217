// Package sez prints the user-facing progress lines of the CLI.
//
// Every line is prefixed with "TENJIN SEZ: " followed by an optional
// context such as "(opam) ". The prefix is styled when the writer is a
// terminal and plain otherwise.
package sez

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Prefix starts every line.
const Prefix = "TENJIN SEZ: "

// Sayer writes prefixed lines to an output and an error stream.
type Sayer struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	prefix   lipgloss.Style
	errStyle lipgloss.Style
}

// New creates a Sayer writing to out and errOut.
func New(out, errOut io.Writer) *Sayer {
	r := lipgloss.NewRenderer(out)
	er := lipgloss.NewRenderer(errOut)
	return &Sayer{
		out:      out,
		errOut:   errOut,
		prefix:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		errStyle: er.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")),
	}
}

// Default writes to the process stdout and stderr.
func Default() *Sayer {
	return New(os.Stdout, os.Stderr)
}

// Say prints msg under ctx to the output stream.
func (s *Sayer) Say(ctx, msg string) {
	s.write(s.out, s.prefix, ctx, msg)
}

// Warn prints msg under ctx to the error stream.
func (s *Sayer) Warn(ctx, msg string) {
	s.write(s.errOut, s.errStyle, ctx, msg)
}

// Sayf is Say with formatting.
func (s *Sayer) Sayf(ctx, format string, args ...any) {
	s.Say(ctx, fmt.Sprintf(format, args...))
}

// For returns a say function bound to ctx, e.g. For("(cmake) ").
func (s *Sayer) For(ctx string) func(format string, args ...any) {
	return func(format string, args ...any) {
		s.Sayf(ctx, format, args...)
	}
}

// Out returns the output stream.
func (s *Sayer) Out() io.Writer {
	return s.out
}

// Err returns the error stream.
func (s *Sayer) Err() io.Writer {
	return s.errOut
}

func (s *Sayer) write(w io.Writer, style lipgloss.Style, ctx, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(w, style.Render(Prefix)+ctx+msg)
}
