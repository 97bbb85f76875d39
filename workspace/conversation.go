package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bazelment/claude-sdk-go/executor"
	"github.com/bazelment/claude-sdk-go/observer"
	"github.com/bazelment/claude-sdk-go/recorder"
	"github.com/google/uuid"
)

// discardHandler is a slog.Handler that drops everything, used as the
// default when no logger is configured (agent-cli-wrapper's
// nopLogger/nopHandler convention, carried into every package).
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

// Transition is the in-memory unit of Conversation history: a prompt, its
// execution, and the full before/after snapshots — including their
// shared-ownership session handles, so ToolsUsed and similar queries never
// need to re-parse a session log. Use ToRecord to get the persisted,
// handle-free projection a Recorder actually writes.
type Transition struct {
	ID         string
	Before     *observer.Snapshot
	Prompt     executor.Prompt
	Execution  executor.Execution
	After      *observer.Snapshot
	RecordedAt time.Time
	Metadata   map[string]string
}

// ToRecord projects a Transition into the shape a Recorder persists: the
// snapshots lose their parsed-session handles (replayable from the
// session id/log path alone) but keep everything else.
func (t Transition) ToRecord() recorder.Transition {
	return recorder.Transition{
		ID:         t.ID,
		Before:     recorder.ToRecord(t.Before),
		Prompt:     t.Prompt,
		Execution:  t.Execution,
		After:      recorder.ToRecord(t.After),
		RecordedAt: t.RecordedAt,
		Metadata:   t.Metadata,
	}
}

// Conversation drives a Workspace through a sequence of exchanges,
// threading the CLI's session id from one turn to the next. A fresh
// Conversation has no prior execution; after the first Send it tracks
// whatever session id the CLI most recently minted — which changes on
// every resumed turn. The CLI mints a new id each time, so the id is not
// stable across turns even though the conversation itself is continuous.
type Conversation struct {
	workspace *Workspace
	recorder  *recorder.Recorder
	logger    *slog.Logger

	mu            sync.Mutex
	lastSessionID string // empty means Fresh
	history       []Transition
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithConversationLogger sets the logger used to report non-fatal
// conditions such as a failed recorder append. Defaults to a logger that
// discards everything.
func WithConversationLogger(l *slog.Logger) ConversationOption {
	return func(c *Conversation) { c.logger = l }
}

// NewConversation creates a Conversation over ws. rec is optional: pass
// nil to keep history only in memory, without persisting transitions to
// disk.
func NewConversation(ws *Workspace, rec *recorder.Recorder, opts ...ConversationOption) *Conversation {
	c := &Conversation{workspace: ws, recorder: rec, logger: slog.New(discardHandler{})}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send runs one full exchange: build a prompt (resuming the last session
// id if this Conversation is already Active), snapshot before and after,
// invoke the executor, and record the resulting Transition.
func (c *Conversation) Send(ctx context.Context, text string) (*Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resumeID := c.lastSessionID
	prompt := executor.Prompt{ResumeID: resumeID, Text: text}

	before, err := c.workspace.Snapshot()
	if err != nil {
		return nil, err
	}
	if resumeID == "" {
		// Fresh: clear the session field so callers don't compare this
		// snapshot against an unrelated prior session. Files are still
		// captured.
		before.SessionID = ""
		before.SessionLog = ""
		before.Session = nil
	}

	execution, err := c.workspace.Execute(ctx, prompt)
	if err != nil {
		return nil, err
	}

	after, err := c.workspace.SnapshotWithSession(execution.SessionID)
	if err != nil {
		return nil, err
	}

	transition := Transition{
		ID:         uuid.NewString(),
		Before:     before,
		Prompt:     prompt,
		Execution:  *execution,
		After:      after,
		RecordedAt: time.Now(),
	}

	c.history = append(c.history, transition)
	if c.recorder != nil {
		if err := c.recorder.Append(transition.ToRecord()); err != nil {
			// Non-fatal: the transition already lives in in-memory history
			// and state still advances below. Losing a persisted record
			// must never strand a Conversation mid-exchange or make it
			// resume the wrong session next turn.
			c.logger.Warn("failed to persist transition", "transition_id", transition.ID, "error", err)
		}
	}

	c.lastSessionID = execution.SessionID
	return &transition, nil
}

// History returns every Transition in send order.
func (c *Conversation) History() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transition(nil), c.history...)
}

// TotalCost sums the reported cost of every Execution so far.
func (c *Conversation) TotalCost() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, t := range c.history {
		total += t.Execution.Cost
	}
	return total
}

// ToolsUsed returns the union of tool names used across transitions, in
// first-use order, extracted from each transition's "after" snapshot's
// parsed session — not from the Execution's own ToolsUsed field — since
// the session log is the authoritative record of what actually ran.
func (c *Conversation) ToolsUsed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	var order []string
	for _, t := range c.history {
		if t.After == nil || t.After.Session == nil {
			continue
		}
		for _, name := range t.After.Session.Session().Metadata.UniqueTools() {
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
		}
	}
	return order
}
