// Package session implements the session parser (line-by-line validation,
// threading, metadata derivation) and the conversation tree it builds on
// parent/child links, per the upstream append-only JSONL transcript
// format.
package session

import (
	"bytes"

	"github.com/bazelment/claude-sdk-go/content"
)

// Session groups an ordered list of message records under a session id,
// plus the conversation tree built from their parent links and metadata
// recomputed from the record set.
type Session struct {
	ID       string
	Messages []content.Message
	Tree     *Tree
	Metadata Metadata

	// rawLines holds the original bytes of each line that contributed a
	// Message, in the same order as Messages, so Serialize can re-emit the
	// session byte-for-byte rather than re-marshaling the normalized
	// model (which would lose e.g. a bare-string content shorthand).
	rawLines [][]byte
}

// Serialize re-emits the session as newline-delimited JSON, one line per
// original message-bearing record, in arrival order; envelope-only records
// (summary, pr-link, ...) are not re-emitted. This is the round-trip counterpart to
// Load: parse(Serialize(session)) preserves message order, ids, and
// content blocks.
func (s *Session) Serialize() []byte {
	if len(s.rawLines) == 0 {
		return nil
	}
	return bytes.Join(s.rawLines, []byte("\n"))
}

// Empty reports whether the session has no messages (e.g. an empty file,
// or a file with only unparseable/dropped lines).
func (s *Session) Empty() bool {
	return len(s.Messages) == 0
}
