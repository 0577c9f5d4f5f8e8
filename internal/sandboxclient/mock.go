package sandboxclient

import (
	"context"
	"sync"

	"github.com/google/uuid"

	judgeerr "judgecore/pkg/errors"
)

// ExecFunc is the test double's hook for deciding what Exec returns for a
// given batch of commands.
type ExecFunc func(ctx context.Context, cmds []Cmd) ([]Result, error)

// Mock is an in-memory Client for tests that don't want to talk to a real
// sandbox process. File storage is a plain map guarded by a mutex;
// Exec is driven entirely by the injected ExecFunc.
type Mock struct {
	mu    sync.Mutex
	files map[string][]byte

	Exec ExecFunc
}

// NewMock builds an empty Mock. Set the Exec field (or use
// WithExecResults) before calling ExecCmds.
func NewMock() *Mock {
	return &Mock{files: make(map[string][]byte)}
}

// WithExecResults installs an ExecFunc that always returns results,
// ignoring cmds — useful for tests that only care about file bookkeeping.
func (m *Mock) WithExecResults(results []Result) *Mock {
	m.Exec = func(context.Context, []Cmd) ([]Result, error) {
		return results, nil
	}
	return m
}

func (m *Mock) ExecCmds(ctx context.Context, cmds []Cmd) ([]Result, error) {
	if m.Exec == nil {
		return nil, judgeerr.New(judgeerr.Sandbox).WithMessage("mock sandbox client has no ExecFunc installed")
	}
	return m.Exec(ctx, cmds)
}

func (m *Mock) FileAdd(_ context.Context, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.files[id] = content
	return id, nil
}

func (m *Mock) FileGet(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[fileID]
	if !ok {
		return nil, judgeerr.Newf(judgeerr.FileNotFound, "sandbox file %q not found", fileID).WithDetail("file_id", fileID)
	}
	return b, nil
}

func (m *Mock) FileDelete(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, fileID)
	return nil
}

func (m *Mock) FileList(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.files))
	for id := range m.files {
		out[id] = id
	}
	return out, nil
}

var _ Client = (*mockAdapter)(nil)

// mockAdapter satisfies the Client interface's Exec method name, which
// Mock itself can't implement directly (ExecCmds avoids shadowing the
// Exec field holding the hook function).
type mockAdapter struct {
	*Mock
}

func (a *mockAdapter) Exec(ctx context.Context, cmds []Cmd) ([]Result, error) {
	return a.ExecCmds(ctx, cmds)
}

// AsClient adapts m to the Client interface.
func (m *Mock) AsClient() Client {
	return &mockAdapter{m}
}
