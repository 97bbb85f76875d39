package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bazelment/claude-sdk-go/content"
	"github.com/bazelment/claude-sdk-go/internal/jsonl"
)

// recordType is the upstream "type" discriminator.
type recordType string

const (
	recordUser       recordType = "user"
	recordAssistant  recordType = "assistant"
	recordSystem     recordType = "system"
	recordSummary    recordType = "summary"
	recordToolResult recordType = "tool_result"

	// Envelope-only types: not one of the five message-bearing types, but
	// recognized by name so they contribute metadata hints instead of
	// being flagged as unknown (see SPEC_FULL.md, "Supplemented features").
	recordFileHistorySnapshot recordType = "file-history-snapshot"
	recordQueueOperation      recordType = "queue-operation"
	recordPRLink              recordType = "pr-link"
	recordProgress            recordType = "progress"
)

// envelope is decoded first, from every line, to discriminate on "type"
// before committing to a full content.Message decode.
type envelope struct {
	Type      recordType      `json:"type"`
	SessionID string          `json:"session_id"`
	Summary   string          `json:"summary"`
	PRURL     string          `json:"prUrl"`
	PRNumber  int             `json:"prNumber"`
	Subtype   string          `json:"subtype"`
	Raw       json.RawMessage `json:"-"`
}

// Option configures Load/LoadReader.
type Option func(*config)

type config struct {
	strict bool
}

// WithStrict promotes every warning that Load would otherwise collect into
// a fatal error: the first such warning aborts parsing.
func WithStrict() Option {
	return func(c *config) { c.strict = true }
}

// strictWarningError distinguishes a strict-mode abort (already a
// complete, user-facing error) from a plain scanner I/O failure, which
// still needs wrapping in a parse error.
type strictWarningError struct{ error }

// Load reads and parses a session log from path.
func Load(path string, opts ...Option) (*Session, []Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, newParseError(path, err)
	}
	defer f.Close()
	return LoadReader(f, path, opts...)
}

// LoadReader parses a session log from r. path is used only to annotate
// errors; pass "" if none is available.
func LoadReader(r io.Reader, path string, opts ...Option) (*Session, []Warning, error) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	var (
		warnings     []Warning
		sessionID    string
		messages     []content.Message
		rawLines     [][]byte
		ids          []string
		parentIDs    = map[string]*string{}
		sidechains   = map[string]bool{}
		seenToolUses = map[string]bool{}
		hints        []string
		compactions  int
	)

	addWarning := func(w Warning) error {
		warnings = append(warnings, w)
		if cfg.strict {
			return strictWarningError{fmt.Errorf("%s (line %d): %s", w.Reason, w.Line, w.Excerpt)}
		}
		return nil
	}

	scanErr := jsonl.Scan(r, func(lineNo int, line []byte) error {
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return addWarning(Warning{Line: lineNo, Reason: "malformed JSON", Excerpt: excerpt(line)})
		}

		switch env.Type {
		case recordUser, recordAssistant, recordSystem, recordToolResult:
			var msg content.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				return addWarning(Warning{Line: lineNo, Reason: "malformed record: " + err.Error(), Excerpt: excerpt(line)})
			}
			if msg.Role == "" && env.Type == recordToolResult {
				msg.Role = content.RoleTool
			}

			if cfg.strict {
				for _, b := range msg.ToolUses() {
					if err := content.ValidateToolInput(b.Input); err != nil {
						return addWarning(Warning{Line: lineNo, Reason: "invalid tool input: " + err.Error(), Excerpt: excerpt(line)})
					}
				}
			}

			if msg.SessionID != "" {
				if sessionID == "" {
					sessionID = msg.SessionID
				} else if msg.SessionID != sessionID {
					return addWarning(Warning{Line: lineNo, Reason: fmt.Sprintf("inconsistent session id: expected %q, got %q", sessionID, msg.SessionID), Excerpt: excerpt(line)})
				}
			}

			if env.Subtype == "compact_boundary" {
				compactions++
			}

			flagDanglingToolResults(&msg, seenToolUses)

			messages = append(messages, msg)
			rawLines = append(rawLines, line)
			ids = append(ids, msg.ID)
			if _, exists := parentIDs[msg.ID]; !exists {
				parentIDs[msg.ID] = msg.ParentID
				sidechains[msg.ID] = msg.IsSidechain
			}

		case recordSummary:
			if env.Summary != "" {
				hints = append(hints, "summary: "+env.Summary)
			}

		case recordPRLink:
			if env.PRURL != "" {
				hints = append(hints, fmt.Sprintf("pr-link: #%d %s", env.PRNumber, env.PRURL))
			}

		case recordFileHistorySnapshot, recordQueueOperation, recordProgress:
			// Known-but-inert envelope types: internal bookkeeping, never a
			// warning (see SPEC_FULL.md).

		default:
			return addWarning(Warning{Line: lineNo, Reason: fmt.Sprintf("unknown record type %q", env.Type), Excerpt: excerpt(line)})
		}
		return nil
	})
	if scanErr != nil {
		if se, ok := scanErr.(strictWarningError); ok {
			return nil, warnings, se.error
		}
		return nil, warnings, newParseError(path, scanErr)
	}

	tree, treeWarnings := buildTree(ids, parentIDs, sidechains)
	for _, tw := range treeWarnings {
		warnings = append(warnings, Warning{Reason: tw.Reason, Excerpt: tw.ID})
		if cfg.strict {
			return nil, warnings, fmt.Errorf("%s: %s", tw.Reason, tw.ID)
		}
	}

	meta := computeMetadata(messages, hints, compactions)

	return &Session{
		ID:       sessionID,
		Messages: messages,
		Tree:     tree,
		Metadata: meta,
		rawLines: rawLines,
	}, warnings, nil
}

// flagDanglingToolResults marks ToolResult blocks whose ToolUseID was not
// produced by an earlier ToolUse in the thread (tracked via seen, which the
// caller threads across the whole file in arrival order). ToolUse blocks
// in msg are added to seen as they are encountered, so a ToolResult later
// in the SAME message can still resolve against a ToolUse earlier in it.
func flagDanglingToolResults(msg *content.Message, seen map[string]bool) {
	for i := range msg.Content {
		switch msg.Content[i].Type {
		case content.BlockToolUse:
			seen[msg.Content[i].ToolUseID] = true
		case content.BlockToolResult:
			if !seen[msg.Content[i].ToolUseID] {
				msg.Content[i].DanglingResult = true
			}
		}
	}
}

// excerpt trims a raw line to a reasonable length for inclusion in a
// warning message.
func excerpt(line []byte) string {
	const max = 200
	if len(line) <= max {
		return string(line)
	}
	return string(line[:max]) + "..."
}
