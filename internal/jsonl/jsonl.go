// Package jsonl provides the line-scanning helper shared by session and
// recorder: both read a newline-delimited JSON file and hand each non-blank
// line to a callback as a freshly-copied, reusable byte slice.
package jsonl

import (
	"bufio"
	"bytes"
	"io"
)

// MaxLineSize bounds how large a single line may be before Scan gives up,
// matching upstream tooling's own line-size conventions.
const MaxLineSize = 10 * 1024 * 1024

// Scan reads newline-delimited records from r, calling fn once per
// non-blank line (1-indexed) with a copy of the line's bytes — safe to
// retain past the call, unlike bufio.Scanner's own buffer. Scanning stops
// at the first error fn returns, which Scan then returns unchanged.
func Scan(r io.Reader, fn func(lineNo int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		owned := append([]byte(nil), line...)
		if err := fn(lineNo, owned); err != nil {
			return err
		}
	}
	return scanner.Err()
}
