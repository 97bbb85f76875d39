// Package recorder persists Transitions — the Workspace/Conversation unit
// of history — to an append-only JSONL file, one Conversation per file.
package recorder

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bazelment/claude-sdk-go/executor"
	"github.com/bazelment/claude-sdk-go/internal/jsonl"
	"github.com/bazelment/claude-sdk-go/observer"
	"github.com/bazelment/claude-sdk-go/sdkerrors"
	"github.com/google/uuid"
)

// DefaultStateDir is the directory name, relative to a workspace root,
// under which transitions are recorded.
const DefaultStateDir = ".ccsdk"

// Transition is the unit of history: one send/response cycle plus the
// environment snapshots taken immediately before and after it.
type Transition struct {
	ID         string            `json:"id"`
	Before     *SnapshotRecord   `json:"before"`
	Prompt     executor.Prompt   `json:"prompt"`
	Execution  executor.Execution `json:"execution"`
	After      *SnapshotRecord   `json:"after"`
	RecordedAt time.Time         `json:"recorded_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SnapshotRecord is the on-disk projection of an observer.Snapshot: the
// parsed-session field is deliberately absent (the transition log stays
// replayable without the heavy message cache). SessionID, plus SessionLog,
// let a reader re-parse the full session from disk if needed.
type SnapshotRecord struct {
	WorkspacePath string            `json:"workspace_path"`
	Files         map[string]string `json:"files,omitempty"`
	SessionLog    string            `json:"session_log,omitempty"`
	SessionID     string            `json:"session_id,omitempty"`
	TakenAt       time.Time         `json:"taken_at"`
}

// ToRecord projects a Snapshot into its persisted form.
func ToRecord(s *observer.Snapshot) *SnapshotRecord {
	if s == nil {
		return nil
	}
	return &SnapshotRecord{
		WorkspacePath: s.WorkspacePath,
		Files:         s.Files,
		SessionLog:    s.SessionLog,
		SessionID:     s.SessionID,
		TakenAt:       s.TakenAt,
	}
}

// Recorder is a single-writer, append-only JSONL sink for Transitions. One
// Recorder belongs to exactly one Conversation.
type Recorder struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

// Open creates (or appends to) the transitions file for a recorder id
// under "<workspaceRoot>/<stateDir>/transitions/<id>.jsonl". stateDir
// defaults to DefaultStateDir when empty.
func Open(workspaceRoot, stateDir, id string) (*Recorder, error) {
	if stateDir == "" {
		stateDir = DefaultStateDir
	}
	if id == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(workspaceRoot, stateDir, "transitions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to create transitions directory", err).WithPath(dir)
	}

	path := filepath.Join(dir, id+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to open transitions file", err).WithPath(path)
	}
	return &Recorder{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the file this Recorder appends to.
func (r *Recorder) Path() string { return r.path }

// Append writes one Transition as a single JSON line and flushes it to
// disk. Safe to call concurrently, though a Recorder is meant to be owned
// by exactly one Conversation.
func (r *Recorder) Append(t Transition) error {
	data, err := json.Marshal(t)
	if err != nil {
		return sdkerrors.Wrap(sdkerrors.State, "failed to marshal transition", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(data); err != nil {
		return sdkerrors.Wrap(sdkerrors.IO, "failed to write transition", err).WithPath(r.path)
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return sdkerrors.Wrap(sdkerrors.IO, "failed to write transition", err).WithPath(r.path)
	}
	if err := r.w.Flush(); err != nil {
		return sdkerrors.Wrap(sdkerrors.IO, "failed to flush transition", err).WithPath(r.path)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return sdkerrors.Wrap(sdkerrors.IO, "failed to flush transitions file", err).WithPath(r.path)
	}
	if err := r.f.Close(); err != nil {
		return sdkerrors.Wrap(sdkerrors.IO, "failed to close transitions file", err).WithPath(r.path)
	}
	return nil
}

// Load reads every Transition from a recorder's JSONL file, in append
// order.
func Load(path string) ([]Transition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to open transitions file", err).WithPath(path)
	}
	defer f.Close()

	var out []Transition
	scanErr := jsonl.Scan(f, func(_ int, line []byte) error {
		var t Transition
		if err := json.Unmarshal(line, &t); err != nil {
			return sdkerrors.Wrap(sdkerrors.Parse, "malformed transition record", err).WithPath(path)
		}
		out = append(out, t)
		return nil
	})
	if scanErr != nil {
		if sdkErr, ok := scanErr.(*sdkerrors.Error); ok {
			return nil, sdkErr
		}
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to read transitions file", scanErr).WithPath(path)
	}
	return out, nil
}

// FindByID scans every "*.jsonl" file in dir (a transitions directory, as
// created by Open) for the first Transition whose ID matches id.
func FindByID(dir, id string) (Transition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Transition{}, sdkerrors.Wrap(sdkerrors.IO, "failed to read transitions directory", err).WithPath(dir)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		transitions, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		for _, t := range transitions {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return Transition{}, sdkerrors.New(sdkerrors.NotFound, "no transition found with id "+id).WithPath(dir)
}
