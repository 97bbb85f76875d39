package session

import "github.com/bazelment/claude-sdk-go/sdkerrors"

// newParseError wraps a whole-file decode failure (unreadable, not UTF-8).
func newParseError(path string, cause error) error {
	err := sdkerrors.Wrap(sdkerrors.Parse, "failed to parse session log", cause)
	if path != "" {
		err.WithPath(path)
	}
	return err
}

// newInconsistentSessionID reports a record whose session id differs from
// the one established by the first substantive record in the file.
func newInconsistentSessionID(path, want, got string) error {
	err := sdkerrors.Newf(sdkerrors.Parse, "inconsistent session id: expected %q, got %q", want, got)
	if path != "" {
		err.WithPath(path)
	}
	return err
}
