// Package workspace composes an Executor and an Observer over one working
// directory, and layers a Conversation state machine on top of them.
package workspace

import (
	"context"
	"sync"

	"github.com/bazelment/claude-sdk-go/executor"
	"github.com/bazelment/claude-sdk-go/observer"
	"github.com/bazelment/claude-sdk-go/sdkerrors"
)

// Workspace pairs one Executor with one Observer over a single working
// directory. It is single-writer: Execute serializes every invocation
// against the same CLI, matching the upstream CLI's own expectation that
// only one process touches a project's session state at a time.
type Workspace struct {
	root     string
	executor *executor.Executor
	observer *observer.Observer

	mu           sync.Mutex
	allowedTools []string
	model        string
}

// New creates a Workspace rooted at root, using exec and obs as its
// Executor and Observer. Both are required: Workspace composes, it does
// not construct, its collaborators.
func New(root string, exec *executor.Executor, obs *observer.Observer) (*Workspace, error) {
	if exec == nil || obs == nil {
		return nil, sdkerrors.New(sdkerrors.State, "workspace requires a non-nil executor and observer")
	}
	return &Workspace{root: root, executor: exec, observer: obs}, nil
}

// Root returns the working directory this Workspace operates on.
func (w *Workspace) Root() string { return w.root }

// SetAllowedTools changes the default tool allowlist applied to prompts
// that don't specify their own.
func (w *Workspace) SetAllowedTools(tools []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.allowedTools = append([]string(nil), tools...)
}

// SetModel changes the default model override applied to prompts that
// don't specify their own.
func (w *Workspace) SetModel(model string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.model = model
}

// Snapshot delegates to the Observer for this workspace's root.
func (w *Workspace) Snapshot() (*observer.Snapshot, error) {
	return w.observer.Snapshot(w.root)
}

// SnapshotWithSession delegates to the Observer, waiting for sessionID to
// materialize in the project's session logs.
func (w *Workspace) SnapshotWithSession(sessionID string) (*observer.Snapshot, error) {
	return w.observer.SnapshotWithSession(w.root, sessionID)
}

// Execute fills in the workspace's configured default AllowedTools/Model
// where prompt leaves them empty, then invokes the Executor. Concurrent
// Execute calls on the same Workspace block on each other: only one CLI
// invocation runs against this root at a time.
func (w *Workspace) Execute(ctx context.Context, prompt executor.Prompt) (*executor.Execution, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(prompt.AllowedTools) == 0 {
		prompt.AllowedTools = w.allowedTools
	}
	if prompt.Model == "" {
		prompt.Model = w.model
	}
	return w.executor.Execute(ctx, w.root, prompt)
}
