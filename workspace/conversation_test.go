package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bazelment/claude-sdk-go/executor"
	"github.com/bazelment/claude-sdk-go/observer"
	"github.com/bazelment/claude-sdk-go/pathenc"
	"github.com/bazelment/claude-sdk-go/recorder"
	"github.com/stretchr/testify/require"
)

// capturingHandler records whether any record was handled, for tests that
// need to assert a warning was logged without depending on its exact text.
type capturingHandler struct{ handled *bool }

func (h capturingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h capturingHandler) Handle(context.Context, slog.Record) error {
	*h.handled = true
	return nil
}
func (h capturingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h capturingHandler) WithGroup(string) slog.Handler      { return h }

// writeFakeCLI writes an executable shell script standing in for the
// upstream CLI: each invocation mints a new session id, appends a Bash
// tool_use record to that session's own log ("<session-id>.jsonl" in the
// project directory under home), and
// prints the --output-format json response on stdout, mirroring the real
// CLI's one-shot contract closely enough to exercise Workspace/Conversation
// end-to-end.
func writeFakeCLI(t *testing.T, home string) string {
	t.Helper()
	script := filepath.Join(t.TempDir(), "fake-claude.sh")
	const body = `#!/bin/sh
set -e
n=$(cat "$FAKE_CLI_COUNTER" 2>/dev/null || echo 0)
n=$((n + 1))
echo "$n" > "$FAKE_CLI_COUNTER"
session_id="session-$n"
project_dir="$FAKE_CLI_HOME/.claude/projects/$FAKE_CLI_PROJECT"
mkdir -p "$project_dir"
printf '{"type":"assistant","uuid":"m%s","session_id":"%s","role":"assistant","content":[{"type":"tool_use","id":"t%s","name":"Bash","input":{}}]}\n' "$n" "$session_id" "$n" >> "$project_dir/$session_id.jsonl"
printf '{"result":"ok-%s","session_id":"%s","cost_usd":0.01,"tools_used":["Bash"]}' "$n" "$session_id"
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func TestConversation_SendAdvancesState(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()
	script := writeFakeCLI(t, home)

	os.Setenv("FAKE_CLI_HOME", home)
	os.Setenv("FAKE_CLI_PROJECT", pathenc.Encode(workDir))
	os.Setenv("FAKE_CLI_COUNTER", filepath.Join(t.TempDir(), "counter"))
	defer func() {
		os.Unsetenv("FAKE_CLI_HOME")
		os.Unsetenv("FAKE_CLI_PROJECT")
		os.Unsetenv("FAKE_CLI_COUNTER")
	}()

	exec := executor.New(executor.WithCLIPath(script))
	obs, err := observer.New(observer.WithHome(home))
	require.NoError(t, err)
	ws, err := New(workDir, exec, obs)
	require.NoError(t, err)

	conv := NewConversation(ws, nil)

	t1, err := conv.Send(context.Background(), "first")
	require.NoError(t, err)
	require.Equal(t, "session-1", t1.Execution.SessionID)
	require.Empty(t, t1.Prompt.ResumeID, "first send should not resume anything")

	t2, err := conv.Send(context.Background(), "second")
	require.NoError(t, err)
	require.Equal(t, "session-1", t2.Prompt.ResumeID, "second send should resume the first session id")
	require.Equal(t, "session-2", t2.Execution.SessionID)

	require.Len(t, conv.History(), 2)
	require.InDelta(t, 0.02, conv.TotalCost(), 0.0001)
	require.Equal(t, []string{"Bash"}, conv.ToolsUsed())
}

func TestConversation_PersistsToRecorder(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()
	script := writeFakeCLI(t, home)

	os.Setenv("FAKE_CLI_HOME", home)
	os.Setenv("FAKE_CLI_PROJECT", pathenc.Encode(workDir))
	os.Setenv("FAKE_CLI_COUNTER", filepath.Join(t.TempDir(), "counter"))
	defer func() {
		os.Unsetenv("FAKE_CLI_HOME")
		os.Unsetenv("FAKE_CLI_PROJECT")
		os.Unsetenv("FAKE_CLI_COUNTER")
	}()

	exec := executor.New(executor.WithCLIPath(script))
	obs, err := observer.New(observer.WithHome(home))
	require.NoError(t, err)
	ws, err := New(workDir, exec, obs)
	require.NoError(t, err)

	rec, err := recorder.Open(workDir, "", "conv-test")
	require.NoError(t, err)
	defer rec.Close()

	conv := NewConversation(ws, rec)
	_, err = conv.Send(context.Background(), "hello")
	require.NoError(t, err)

	loaded, err := recorder.Load(rec.Path())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "session-1", loaded[0].Execution.SessionID)
}

func TestConversation_RecorderAppendFailureIsNonFatal(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()
	script := writeFakeCLI(t, home)

	os.Setenv("FAKE_CLI_HOME", home)
	os.Setenv("FAKE_CLI_PROJECT", pathenc.Encode(workDir))
	os.Setenv("FAKE_CLI_COUNTER", filepath.Join(t.TempDir(), "counter"))
	defer func() {
		os.Unsetenv("FAKE_CLI_HOME")
		os.Unsetenv("FAKE_CLI_PROJECT")
		os.Unsetenv("FAKE_CLI_COUNTER")
	}()

	exec := executor.New(executor.WithCLIPath(script))
	obs, err := observer.New(observer.WithHome(home))
	require.NoError(t, err)
	ws, err := New(workDir, exec, obs)
	require.NoError(t, err)

	rec, err := recorder.Open(workDir, "", "conv-append-fail")
	require.NoError(t, err)
	require.NoError(t, rec.Close()) // subsequent Append calls must now fail

	var handled bool
	logger := slog.New(capturingHandler{handled: &handled})
	conv := NewConversation(ws, rec, WithConversationLogger(logger))

	t1, err := conv.Send(context.Background(), "first")
	require.NoError(t, err, "a failed recorder append must not fail Send")
	require.Equal(t, "session-1", t1.Execution.SessionID)
	require.Len(t, conv.History(), 1)
	require.True(t, handled, "expected the append failure to be logged")

	t2, err := conv.Send(context.Background(), "second")
	require.NoError(t, err)
	require.Equal(t, "session-1", t2.Prompt.ResumeID, "lastSessionID must still have advanced past the append failure")
	require.Equal(t, "session-2", t2.Execution.SessionID)
	require.Len(t, conv.History(), 2)
}

func TestWorkspace_ExecuteWithConfiguredDefaults(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()
	script := writeFakeCLI(t, home)

	os.Setenv("FAKE_CLI_HOME", home)
	os.Setenv("FAKE_CLI_PROJECT", pathenc.Encode(workDir))
	os.Setenv("FAKE_CLI_COUNTER", filepath.Join(t.TempDir(), "counter"))
	defer func() {
		os.Unsetenv("FAKE_CLI_HOME")
		os.Unsetenv("FAKE_CLI_PROJECT")
		os.Unsetenv("FAKE_CLI_COUNTER")
	}()

	exec := executor.New(executor.WithCLIPath(script))
	obs, err := observer.New(observer.WithHome(home))
	require.NoError(t, err)
	ws, err := New(workDir, exec, obs)
	require.NoError(t, err)
	ws.SetAllowedTools([]string{"Bash"})
	ws.SetModel("opus")

	execution, err := ws.Execute(context.Background(), executor.Prompt{Text: "req"})
	require.NoError(t, err)
	require.Equal(t, "session-1", execution.SessionID)
}
