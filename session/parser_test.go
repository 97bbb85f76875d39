package session

import (
	"strings"
	"testing"
)

func TestLoad_EmptyFile(t *testing.T) {
	sess, warnings, err := LoadReader(strings.NewReader(""), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if !sess.Empty() {
		t.Fatalf("expected empty session, got %d messages", len(sess.Messages))
	}
	if sess.Metadata.TotalCost != 0.0 {
		t.Fatalf("expected total cost 0.0, got %v", sess.Metadata.TotalCost)
	}
}

func TestLoad_ToolOnlyTurn(t *testing.T) {
	line := `{"type":"assistant","uuid":"m1","session_id":"s1","role":"assistant","timestamp":"2026-01-01T00:00:00Z","content":[{"type":"tool_use","id":"t1","name":"Bash","input":{"cmd":"ls"}}]}`

	sess, _, err := LoadReader(strings.NewReader(line), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sess.Messages))
	}
	if got := sess.Messages[0].Text(); got != "" {
		t.Fatalf("expected empty response text, got %q", got)
	}
	if got := sess.Metadata.UniqueTools(); len(got) != 1 || got[0] != "Bash" {
		t.Fatalf("expected tools [Bash], got %v", got)
	}
}

func TestLoad_BranchedThread(t *testing.T) {
	lines := []string{
		`{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"root"}`,
		`{"type":"assistant","uuid":"B","session_id":"s1","role":"assistant","parent_uuid":"A","timestamp":"2026-01-01T00:00:01Z","content":"child1"}`,
		`{"type":"assistant","uuid":"C","session_id":"s1","role":"assistant","parent_uuid":"A","timestamp":"2026-01-01T00:00:02Z","content":"child2"}`,
	}
	sess, warnings, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(sess.Tree.Roots) != 1 || sess.Tree.Roots[0] != "A" {
		t.Fatalf("expected root A, got %v", sess.Tree.Roots)
	}
	children := sess.Tree.Nodes["A"].Children
	if len(children) != 2 || children[0] != "B" || children[1] != "C" {
		t.Fatalf("expected children [B C], got %v", children)
	}

	leaves := sess.Tree.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %v", leaves)
	}

	mainChainLen := len(sess.Tree.Path("A", "B"))
	if mainChainLen != 2 {
		t.Fatalf("expected main-chain length 2, got %d", mainChainLen)
	}
}

func TestLoad_MainChainSkipsSidechain(t *testing.T) {
	lines := []string{
		`{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"root"}`,
		`{"type":"assistant","uuid":"B","session_id":"s1","role":"assistant","parent_uuid":"A","timestamp":"2026-01-01T00:00:01Z","content":"main"}`,
		`{"type":"assistant","uuid":"C","session_id":"s1","role":"assistant","parent_uuid":"A","isSidechain":true,"timestamp":"2026-01-01T00:00:02Z","content":"side"}`,
		`{"type":"assistant","uuid":"D","session_id":"s1","role":"assistant","parent_uuid":"C","isSidechain":true,"timestamp":"2026-01-01T00:00:03Z","content":"side-deeper"}`,
	}
	sess, _, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// D is the deepest leaf overall, but it hangs off the sidechain C; the
	// main chain must stop at B even though D's raw depth is greater.
	chain := sess.Tree.MainChain()
	want := []string{"A", "B"}
	if len(chain) != len(want) {
		t.Fatalf("expected main chain %v, got %v", want, chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("expected main chain %v, got %v", want, chain)
		}
	}
}

func TestLoad_OrphanRecord(t *testing.T) {
	line := `{"type":"user","uuid":"R","session_id":"s1","role":"user","parent_uuid":"missing","timestamp":"2026-01-01T00:00:00Z","content":"hi"}`

	sess, warnings, err := LoadReader(strings.NewReader(line), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("expected message count unchanged, got %d", len(sess.Messages))
	}
	node := sess.Tree.Nodes["R"]
	if node == nil || !node.Orphan {
		t.Fatalf("expected R to be an orphan root, got %+v", node)
	}
	if len(sess.Tree.Roots) != 1 || sess.Tree.Roots[0] != "R" {
		t.Fatalf("expected roots [R], got %v", sess.Tree.Roots)
	}
}

func TestLoad_Cycle(t *testing.T) {
	lines := []string{
		`{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"a"}`,
		`{"type":"assistant","uuid":"B","session_id":"s1","role":"assistant","parent_uuid":"C","timestamp":"2026-01-01T00:00:01Z","content":"b"}`,
		`{"type":"assistant","uuid":"C","session_id":"s1","role":"assistant","parent_uuid":"B","timestamp":"2026-01-01T00:00:02Z","content":"c"}`,
	}
	sess, warnings, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatalf("expected a cycle warning")
	}
	// Tree must be acyclic: every node reachable from some root.
	reached := map[string]bool{}
	for _, root := range sess.Tree.Roots {
		for _, id := range sess.Tree.PreOrder(root) {
			reached[id] = true
		}
	}
	for id := range sess.Tree.Nodes {
		if !reached[id] {
			t.Fatalf("node %s not reachable from any root", id)
		}
	}
}

func TestLoad_InterruptedTrailingLine(t *testing.T) {
	lines := `{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"a"}` + "\n" + `{"type":"user","uuid":"B"`

	sess, warnings, err := LoadReader(strings.NewReader(lines), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the truncated line, got %v", warnings)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("expected the intact preceding record to survive, got %d messages", len(sess.Messages))
	}
}

func TestLoad_InconsistentSessionID(t *testing.T) {
	lines := []string{
		`{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"a"}`,
		`{"type":"user","uuid":"B","session_id":"s2","role":"user","timestamp":"2026-01-01T00:00:01Z","content":"b"}`,
	}
	sess, warnings, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("expected the inconsistent record to be dropped, got %d messages", len(sess.Messages))
	}
	if sess.ID != "s1" {
		t.Fatalf("expected session id s1, got %q", sess.ID)
	}
}

func TestLoad_StrictModePromotesWarnings(t *testing.T) {
	lines := []string{
		`{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"a"}`,
		`not json at all`,
	}
	_, _, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "", WithStrict())
	if err == nil {
		t.Fatalf("expected strict mode to turn the warning into an error")
	}
}

func TestLoad_StrictModeRejectsNonObjectToolInput(t *testing.T) {
	lines := []string{
		`{"type":"assistant","uuid":"A","session_id":"s1","role":"assistant","timestamp":"2026-01-01T00:00:00Z","content":[{"type":"tool_use","id":"t1","name":"Bash","input":"not-an-object"}]}`,
	}
	_, _, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "", WithStrict())
	if err == nil {
		t.Fatalf("expected strict mode to reject a non-object tool input")
	}

	_, warnings, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("loose mode should not fail: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("loose mode should not warn about tool input shape, got %v", warnings)
	}
}

func TestCostInvariant(t *testing.T) {
	lines := []string{
		`{"type":"assistant","uuid":"A","session_id":"s1","role":"assistant","timestamp":"2026-01-01T00:00:00Z","content":"a","costUSD":0.01}`,
		`{"type":"assistant","uuid":"B","session_id":"s1","role":"assistant","parent_uuid":"A","timestamp":"2026-01-01T00:00:01Z","content":"b","costUSD":0.02}`,
	}
	sess, _, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, msg := range sess.Messages {
		if msg.Cost != nil {
			sum += *msg.Cost
		}
	}
	const epsilon = 1e-9
	if diff := sum - sess.Metadata.TotalCost; diff > epsilon || diff < -epsilon {
		t.Fatalf("cost invariant violated: sum=%v total=%v", sum, sess.Metadata.TotalCost)
	}
}

func TestStartEndTimestampInvariant(t *testing.T) {
	lines := []string{
		`{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"a"}`,
		`{"type":"assistant","uuid":"B","session_id":"s1","role":"assistant","parent_uuid":"A","timestamp":"2026-01-01T00:05:00Z","content":"b"}`,
	}
	sess, _, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.Metadata.Start.Equal(sess.Messages[0].Timestamp) {
		t.Fatalf("expected start time to match first message timestamp")
	}
	if !sess.Metadata.End.Equal(sess.Messages[len(sess.Messages)-1].Timestamp) {
		t.Fatalf("expected end time to match last message timestamp")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	original := `{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":"hello"}` + "\n" +
		`{"type":"assistant","uuid":"B","session_id":"s1","role":"assistant","parent_uuid":"A","timestamp":"2026-01-01T00:00:01Z","content":"hi"}`

	sess, _, err := LoadReader(strings.NewReader(original), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reparsed, _, err := LoadReader(strings.NewReader(string(sess.Serialize())), "")
	if err != nil {
		t.Fatalf("unexpected error reparsing: %v", err)
	}

	if len(reparsed.Messages) != len(sess.Messages) {
		t.Fatalf("message count changed across round trip: %d vs %d", len(reparsed.Messages), len(sess.Messages))
	}
	for i := range sess.Messages {
		if reparsed.Messages[i].ID != sess.Messages[i].ID {
			t.Fatalf("message id changed at %d: %q vs %q", i, reparsed.Messages[i].ID, sess.Messages[i].ID)
		}
		if reparsed.Messages[i].Text() != sess.Messages[i].Text() {
			t.Fatalf("message text changed at %d", i)
		}
	}
}

func TestDanglingToolResultFlagged(t *testing.T) {
	line := `{"type":"user","uuid":"A","session_id":"s1","role":"user","timestamp":"2026-01-01T00:00:00Z","content":[{"type":"tool_result","tool_use_id":"no-such-tool-use","content":"oops"}]}`

	sess, _, err := LoadReader(strings.NewReader(line), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	results := sess.Messages[0].ToolResults()
	if len(results) != 1 || !results[0].DanglingResult {
		t.Fatalf("expected dangling tool_result to be flagged, got %+v", results)
	}
}
