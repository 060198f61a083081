package fiber

// Handler is a reaction bound to a (path, fiber) pair. The value is the
// type-erased event payload; [Event.Bind] provides the typed wrapper.
type Handler func(value any)

// handlerEntry is one stacked handler. Destroyed entries are tombstones:
// they stay linked until a dispatch or Super walk erases them.
type handlerEntry struct {
	fn        Handler
	destroyed bool
}

// HandlerRef is the scoped lifetime token returned by bind. Closing it
// marks the handler destroyed so that dispatch and Super walks skip it.
//
// Handler state is strictly local to the owning fiber; Close must be
// called from that fiber.
type HandlerRef struct {
	entry *handlerEntry
}

// Close marks the handler destroyed. It does not unlink immediately; the
// tombstone is erased lazily. Safe to call more than once, and on the zero
// HandlerRef.
func (r HandlerRef) Close() {
	if r.entry != nil {
		r.entry.destroyed = true
	}
}

// handlerBlock is the per-(fiber, path) stack of handlers. The newest
// handler sits at the end; dispatch starts past-the-end and Super walks
// backward toward older handlers.
type handlerBlock struct {
	stacked []*handlerEntry
}

// handlerContext is the state of one in-flight dispatch. index starts one
// past the end of the stack as it was when the event arrived; handlers
// bound during execution only take effect for subsequent events.
type handlerContext struct {
	block *handlerBlock
	data  any
	index int
}
