package fiber

import (
	"runtime"
	"slices"
)

// Context is the dispatch state of one fiber: its handler stacks and the
// cooperative primitives Yield, Process, ProcessForever and Super.
//
// A Context is strictly local to its fiber. It must only be used from the
// fiber body (or, for a fiberized host thread, from that thread).
type Context struct {
	sys   *System
	block *controlBlock

	handlerBlocks map[Path]*handlerBlock
	handlerCtx    *handlerContext

	// interrupted aborts the current cooperative wait; set by one-shot
	// await handlers, consumed by Yield.
	interrupted bool
}

func newContext(sys *System, cb *controlBlock) *Context {
	return &Context{
		sys:           sys,
		block:         cb,
		handlerBlocks: make(map[Path]*handlerBlock),
	}
}

// System returns the system this fiber belongs to.
func (c *Context) System() *System { return c.sys }

// Path returns the path of this fiber.
func (c *Context) Path() Path { return c.block.path }

// Self returns a reference to this fiber.
func (c *Context) Self() FiberRef {
	return FiberRef{impl: &localRef{sys: c.sys, block: c.block}}
}

// Scheduler returns the scheduler this fiber last ran on, or nil for
// thread-backed and fiberized contexts. Use it as the pin target for
// [Builder.Pinned].
func (c *Context) Scheduler() *Scheduler {
	if c.block.kind != kindFiber {
		return nil
	}
	return c.block.last.Load()
}

// Bind pushes a handler onto the stack for path. The returned HandlerRef
// tombstones the handler when closed.
func (c *Context) Bind(path Path, h Handler) HandlerRef {
	entry := &handlerEntry{fn: h}
	c.bindEntry(path, entry)
	return HandlerRef{entry: entry}
}

func (c *Context) bindEntry(path Path, entry *handlerEntry) {
	hb, ok := c.handlerBlocks[path]
	if !ok {
		hb = &handlerBlock{}
		c.handlerBlocks[path] = hb
	}
	hb.stacked = append(hb.stacked, entry)
}

// Process drains the mailbox, dispatching every pending event to its
// handler block. Events with no live handler are dropped (dead letter).
func (c *Context) Process() {
	for !c.interrupted {
		ev, ok := c.block.mailbox.Dequeue()
		if !ok {
			return
		}
		c.dispatch(ev)
	}
}

// dispatch routes one pending event through the handler stack for its
// path. The release hook runs exactly once, handler panics included.
func (c *Context) dispatch(ev PendingEvent) {
	defer ev.Release()

	hb, ok := c.handlerBlocks[ev.Path]
	if !ok {
		c.sys.deadLetter(ev.Path)
		return
	}

	// Tombstones at the top are unlinked before dispatch.
	for n := len(hb.stacked); n > 0 && hb.stacked[n-1].destroyed; n = len(hb.stacked) {
		hb.stacked[n-1] = nil
		hb.stacked = hb.stacked[:n-1]
	}
	if len(hb.stacked) == 0 {
		delete(c.handlerBlocks, ev.Path)
		c.sys.deadLetter(ev.Path)
		return
	}

	hc := handlerContext{block: hb, data: ev.Value, index: len(hb.stacked)}
	prev := c.handlerCtx
	c.handlerCtx = &hc
	defer func() { c.handlerCtx = prev }()
	c.Super()
}

// Super invokes the next older live handler bound on the path currently
// being dispatched, erasing tombstones it walks over. Called from within a
// handler it delegates to the handler below it; called when no older
// handler exists it is a no-op.
func (c *Context) Super() {
	hc := c.handlerCtx
	if hc == nil || hc.index == 0 {
		return
	}
	i := hc.index - 1
	for hc.block.stacked[i].destroyed {
		hc.block.stacked = slices.Delete(hc.block.stacked, i, i+1)
		if i == 0 {
			return
		}
		i--
	}
	hc.index = i
	hc.block.stacked[i].fn(hc.data)
}

// Yield drains the mailbox to fixpoint, suspends until new events arrive,
// dispatches them, and returns. The suspend re-checks the mailbox under
// the block mutex so an enqueue racing with the park is never lost.
//
// Yield returns early, without suspending further, as soon as a one-shot
// await handler consumes its event.
func (c *Context) Yield() {
	cb := c.block
	for {
		c.Process()
		if c.interrupted {
			c.interrupted = false
			return
		}

		cb.mu.Lock()
		if ev, ok := cb.mailbox.Dequeue(); ok {
			// A sender won the race; process and start over.
			cb.mu.Unlock()
			c.dispatch(ev)
			if c.interrupted {
				c.interrupted = false
				return
			}
			continue
		}
		cb.suspendLocked()

		c.Process()
		c.interrupted = false
		return
	}
}

// ProcessForever processes events in a loop. It never returns; it is the
// terminal statement of fibers (and fiberized host threads) that exist
// only to react to events.
func (c *Context) ProcessForever() {
	for {
		c.Yield()
	}
}

// Reschedule gives up the fiber's timeslice without suspending: the block
// goes back onto the local run queue as Scheduled and other runnable
// fibers get a turn. On thread-backed contexts it yields the OS thread.
func (c *Context) Reschedule() {
	if c.block.kind == kindFiber {
		c.block.switchBack(instrYielded)
		return
	}
	runtime.Gosched()
}

// interrupt aborts the current cooperative wait. Called by one-shot await
// handlers after capturing their value.
func (c *Context) interrupt() {
	c.interrupted = true
}
