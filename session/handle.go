package session

import "sync/atomic"

// Handle is a cheap-to-clone, read-only reference to a parsed Session.
// Snapshots, transitions, and recorded files pass Handle values around
// instead of *Session so that cloning never deep-copies a session's
// message slice; Clone only bumps a shared counter and copies two
// pointers.
//
// Handle carries no interior mutability: once constructed, the
// underlying Session is never mutated through a Handle.
type Handle struct {
	session *Session
	refs    *atomic.Int32
}

// NewHandle wraps s in a fresh Handle with a reference count of 1.
func NewHandle(s *Session) Handle {
	refs := new(atomic.Int32)
	refs.Store(1)
	return Handle{session: s, refs: refs}
}

// Clone returns a new Handle sharing the same underlying Session,
// incrementing the reference count. O(1): no message data is copied.
func (h Handle) Clone() Handle {
	if h.refs != nil {
		h.refs.Add(1)
	}
	return h
}

// Release decrements the reference count. The underlying Session is
// garbage-collected by the Go runtime once nothing references it; Release
// exists so callers can track handle lifetime explicitly (e.g. in tests)
// without it being required for correctness.
func (h Handle) Release() {
	if h.refs != nil {
		h.refs.Add(-1)
	}
}

// Session returns the underlying parsed session, or nil for a zero Handle.
func (h Handle) Session() *Session {
	return h.session
}

// RefCount reports the current reference count, or 0 for a zero Handle.
func (h Handle) RefCount() int32 {
	if h.refs == nil {
		return 0
	}
	return h.refs.Load()
}

// Valid reports whether the handle wraps a non-nil session.
func (h Handle) Valid() bool {
	return h.session != nil
}
