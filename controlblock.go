package fiber

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// instruction is the flag a fiber sets for its worker when switching back.
type instruction uint8

const (
	// instrYielded: the fiber gave up its timeslice but is still runnable;
	// the worker pushes it back onto the local deque as Scheduled.
	instrYielded instruction = iota
	// instrSuspended: the fiber parked itself; ownership passes to the
	// mailbox and outstanding references, the scheduler forgets it.
	instrSuspended
	// instrTerminated: the fiber is Dead; the worker drops it and
	// decrements the system-wide running count.
	instrTerminated
)

// blockKind discriminates the execution flavor of a control block.
type blockKind uint8

const (
	// kindFiber is a microthread multiplexed onto the scheduler pool.
	kindFiber blockKind = iota
	// kindThread is a fiber backed by its own OS thread.
	kindThread
	// kindFiberized is a non-executing block attached to a host thread so
	// it can send and await with the same primitives.
	kindFiberized
)

// taskFunc is the erased entry functor of a runnable block. The returned
// value fulfills the result promise; a non-nil error fails it.
type taskFunc func(c *Context) (any, error)

// controlBlock is the per-fiber runtime record: identity, life status,
// mailbox, the suspend/wake handoff state, and the result promise.
//
// The mutex guards status and the suspend/wake handoff. Blocks are shared:
// fiber references, promises and the scheduler may all outlive the fiber
// body, and a block is reclaimed only once Dead and unreferenced.
type controlBlock struct {
	path Path
	kind blockKind

	mu     sync.Mutex
	status LifeStatus

	mailbox Mailbox
	result  *Promise[any]
	task    taskFunc
	ctx     *Context

	// bound pins the block to one scheduler; pinned blocks are never
	// stolen. last tracks the scheduler that most recently ran the block
	// and serves as the wake affinity hint.
	bound *Scheduler
	last  atomic.Pointer[Scheduler]

	// Microthread handoff. Only the worker holding the block in Running
	// state touches started; the channels pair one switchTo with one
	// switchBack.
	started  bool
	resumeCh chan struct{}
	yieldCh  chan instruction

	// Thread-backed blocks park on enabled instead of stack switching.
	enabled *sync.Cond

	// Lineage: termination events are emitted to parent on these paths.
	parent       FiberRef
	finishedPath Path
	crashedPath  Path
}

func newControlBlock(kind blockKind, path Path, mailbox Mailbox) *controlBlock {
	cb := &controlBlock{
		path:         path,
		kind:         kind,
		status:       StatusSuspended,
		mailbox:      mailbox,
		result:       NewPromise[any](),
		finishedPath: UniquePath(),
		crashedPath:  UniquePath(),
	}
	if kind != kindFiber {
		cb.enabled = sync.NewCond(&cb.mu)
	}
	return cb
}

// switchTo transfers execution onto the fiber. Called only by the worker
// that moved the block to Running. It returns when the fiber switches
// back, reporting the fiber's instruction.
func (cb *controlBlock) switchTo(sys *System) instruction {
	if !cb.started {
		cb.started = true
		cb.resumeCh = make(chan struct{})
		cb.yieldCh = make(chan instruction)
		go cb.trampoline(sys)
	} else {
		cb.resumeCh <- struct{}{}
	}
	return <-cb.yieldCh
}

// switchBack transfers execution back to the worker and, unless
// terminating, parks until the next switchTo.
func (cb *controlBlock) switchBack(instr instruction) {
	cb.yieldCh <- instr
	if instr != instrTerminated {
		<-cb.resumeCh
	}
}

// suspendLocked parks the fiber. The caller holds cb.mu and has observed
// the mailbox empty while holding it. Returns with cb.mu released and the
// fiber Running again.
func (cb *controlBlock) suspendLocked() {
	cb.status = StatusSuspended
	if cb.kind == kindFiber {
		cb.mu.Unlock()
		cb.switchBack(instrSuspended)
		return
	}
	for cb.status != StatusScheduled {
		cb.enabled.Wait()
	}
	cb.status = StatusRunning
	cb.mu.Unlock()
}

// trampoline is the initial entry of a microthread fiber: it runs the
// erased entry functor, settles the result promise, notifies the parent,
// marks the block Dead, and switches back without returning.
func (cb *controlBlock) trampoline(sys *System) {
	c := newContext(sys, cb)
	cb.ctx = c
	v, err := runTask(cb.task, c)
	cb.finish(sys, v, err)
	cb.switchBack(instrTerminated)
}

// threadMain is the body of an OS-thread-backed fiber.
func (cb *controlBlock) threadMain(sys *System) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	c := newContext(sys, cb)
	cb.ctx = c
	v, err := runTask(cb.task, c)
	cb.finish(sys, v, err)
	sys.fiberFinished()
}

// runTask invokes the entry functor, converting a panic into a PanicError.
func runTask(task taskFunc, c *Context) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r}
		}
	}()
	return task(c)
}

// finish settles the result, emits finished or crashed to the parent, and
// marks the block Dead. Sends racing with death are drained by the dead
// check in the send path.
func (cb *controlBlock) finish(sys *System, v any, err error) {
	if err != nil {
		cb.result.Fail(err)
		cb.parent.send(NewPendingEvent(cb.crashedPath, err, nil))
		sys.log.Debug().
			Stringer("fiber", cb.path).
			Err(err).
			Log("fiber crashed")
	} else {
		cb.result.Fulfill(v)
		cb.parent.send(NewPendingEvent(cb.finishedPath, v, nil))
	}

	cb.mu.Lock()
	cb.status = StatusDead
	cb.mu.Unlock()

	cb.mailbox.Dispose()
}
