package runner

import (
	"context"
	"sync"
)

// MockExecutor is an Executor backed by optional funcs, for tests.
// Every Exec and Output call is recorded in Calls.
type MockExecutor struct {
	LookPathFunc   func(file string) (string, error)
	RunFunc        func(name string, args ...string) (string, error)
	ExecFunc       func(cmd Command) error
	OutputFunc     func(cmd Command) ([]byte, []byte, error)
	FileExistsFunc func(path string) bool

	mu    sync.Mutex
	Calls []Command
}

// LookPath returns /usr/bin/<file> unless LookPathFunc is set.
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// Run returns "1.0.0" unless RunFunc is set.
func (m *MockExecutor) Run(_ context.Context, name string, args ...string) (string, error) {
	m.record(Command{Name: name, Args: args})
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return "1.0.0", nil
}

// Exec succeeds unless ExecFunc is set.
func (m *MockExecutor) Exec(_ context.Context, cmd Command) error {
	m.record(cmd)
	if m.ExecFunc != nil {
		return m.ExecFunc(cmd)
	}
	return nil
}

// Output returns empty output unless OutputFunc is set.
func (m *MockExecutor) Output(_ context.Context, cmd Command) ([]byte, []byte, error) {
	m.record(cmd)
	if m.OutputFunc != nil {
		return m.OutputFunc(cmd)
	}
	return nil, nil, nil
}

// FileExists returns true unless FileExistsFunc is set.
func (m *MockExecutor) FileExists(path string) bool {
	if m.FileExistsFunc != nil {
		return m.FileExistsFunc(path)
	}
	return true
}

// Called returns the names of all recorded commands in order.
func (m *MockExecutor) Called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		names = append(names, c.Name)
	}
	return names
}

func (m *MockExecutor) record(cmd Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, cmd)
}
