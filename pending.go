package fiber

// PendingEvent is the unit queued in a mailbox: a path, the type-erased
// value produced by the sender, and an optional release hook.
//
// Ownership of the value transfers from the sender into the mailbox at send
// time. The runtime guarantees the release hook runs exactly once on every
// code path, including handler panics and mailbox disposal. Senders use the
// hook to return pooled buffers or close resources attached to the value.
type PendingEvent struct {
	// Path addresses the handler block this event dispatches to.
	Path Path
	// Value is the event payload, erased at the mailbox boundary.
	Value any

	release func()
}

// NewPendingEvent constructs a pending event. release may be nil.
func NewPendingEvent(path Path, value any, release func()) PendingEvent {
	return PendingEvent{Path: path, Value: value, release: release}
}

// Release runs the release hook, at most once. Safe on the zero value.
func (e *PendingEvent) Release() {
	if f := e.release; f != nil {
		e.release = nil
		f()
	}
}
