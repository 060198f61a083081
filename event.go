package fiber

// Unit is the empty value for events that carry no payload.
type Unit struct{}

// Event binds a [Path] to a value type. Events carry no runtime state;
// they are keys into handler tables, cheap to copy and share.
type Event[A any] struct {
	path Path
}

// NewEvent returns the event with the given name in the global namespace.
// Two events with the same name address the same handlers.
func NewEvent[A any](name string) Event[A] {
	return Event[A]{path: NamedPath(name)}
}

// NewUniqueEvent returns an event on a fresh process-unique path.
func NewUniqueEvent[A any]() Event[A] {
	return Event[A]{path: UniquePath()}
}

// EventFromPath returns the event addressing the given path.
func EventFromPath[A any](path Path) Event[A] {
	return Event[A]{path: path}
}

// Path returns the path of this event.
func (e Event[A]) Path() Path { return e.path }

// Send delivers the event with the given value to ref's mailbox. It is
// non-blocking and never fails; sends to dead or dead-letter references
// are silently discarded.
func (e Event[A]) Send(ref FiberRef, value A) {
	ref.send(NewPendingEvent(e.path, value, nil))
}

// SendWithRelease is Send with a release hook attached to the value. The
// hook runs exactly once: after the handling fiber consumed the event, or
// when the event is discarded.
func (e Event[A]) SendWithRelease(ref FiberRef, value A, release func()) {
	ref.send(NewPendingEvent(e.path, value, release))
}

// Bind installs fn as the newest handler for this event on the calling
// fiber. Between Bind and a matching arrival the handler is guaranteed to
// fire before the fiber next suspends past the corresponding await.
func (e Event[A]) Bind(c *Context, fn func(A)) HandlerRef {
	return c.Bind(e.path, func(v any) {
		fn(v.(A))
	})
}

// Await suspends the calling fiber until an instance of this event is
// received, and returns its value.
//
// Await installs a one-shot handler, so exactly one event instance is
// consumed per call and the handler is unbound before Await returns.
// Events for other paths received while waiting are dispatched to their
// own handlers as usual.
func (e Event[A]) Await(c *Context) A {
	var (
		val   A
		fired bool
	)
	entry := &handlerEntry{}
	entry.fn = func(v any) {
		val = v.(A)
		fired = true
		entry.destroyed = true
		c.interrupt()
	}
	c.bindEntry(e.path, entry)
	defer HandlerRef{entry: entry}.Close()

	for !fired {
		c.Yield()
	}
	return val
}
