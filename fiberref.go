package fiber

// Locality tags where a referenced fiber lives.
type Locality uint8

const (
	// Local references a fiber in this process.
	Local Locality = iota
	// Remote is reserved for future distribution; the core never produces
	// remote references.
	Remote
	// DeadLetter references nothing: sends are discarded and the result is
	// pre-failed. Produced for spawns after shutdown and by zero refs.
	DeadLetter
)

// String returns a human-readable representation of the locality.
func (l Locality) String() string {
	switch l {
	case Local:
		return "Local"
	case Remote:
		return "Remote"
	case DeadLetter:
		return "DeadLetter"
	default:
		return "Unknown"
	}
}

type fiberRefImpl interface {
	locality() Locality
	path() Path
	resultPromise() *Promise[any]
	sendPending(ev PendingEvent)
	lifecyclePaths() (finished, crashed Path)
}

// FiberRef is an opaque, cheap-to-copy handle to a fiber. Its only
// observable capabilities are sending events (via [Event.Send]) and
// recovering the fiber's result promise. Copies share the same underlying
// reference.
//
// The zero FiberRef behaves as a dead letter.
type FiberRef struct {
	impl fiberRefImpl
}

// Locality reports where the referenced fiber lives.
func (r FiberRef) Locality() Locality {
	if r.impl == nil {
		return DeadLetter
	}
	return r.impl.locality()
}

// Path returns the path of the referenced fiber.
func (r FiberRef) Path() Path {
	if r.impl == nil {
		return Path{}
	}
	return r.impl.path()
}

// Result returns the fiber's result promise, type-erased. Fibers started
// with [Builder.Run] fulfill it with [Unit]; futures fulfill it with the
// task's return value. For a typed view use [FutureRef].
func (r FiberRef) Result() *Promise[any] {
	if r.impl == nil {
		return FailedPromise[any](ErrDeadLetter)
	}
	return r.impl.resultPromise()
}

// Finished is the event the runtime emits to the fiber's parent when the
// body returns normally; its value is the fiber's result.
func (r FiberRef) Finished() Event[any] {
	if r.impl == nil {
		return NewUniqueEvent[any]()
	}
	finished, _ := r.impl.lifecyclePaths()
	return EventFromPath[any](finished)
}

// Crashed is the event the runtime emits to the fiber's parent when the
// body panics or a future's task returns a non-nil error; its value is the
// failure.
func (r FiberRef) Crashed() Event[error] {
	if r.impl == nil {
		return NewUniqueEvent[error]()
	}
	_, crashed := r.impl.lifecyclePaths()
	return EventFromPath[error](crashed)
}

// send enqueues a pending event, running the wake protocol. Discards (and
// releases) when the reference is a dead letter.
func (r FiberRef) send(ev PendingEvent) {
	if r.impl == nil {
		ev.Release()
		return
	}
	r.impl.sendPending(ev)
}

// localRef holds a strong reference to a local control block.
type localRef struct {
	sys   *System
	block *controlBlock
}

func (r *localRef) locality() Locality { return Local }

func (r *localRef) path() Path { return r.block.path }

func (r *localRef) resultPromise() *Promise[any] { return r.block.result }

func (r *localRef) lifecyclePaths() (Path, Path) {
	return r.block.finishedPath, r.block.crashedPath
}

// sendPending implements the enqueue side of the lost-wakeup protocol:
// push into the mailbox first, then check the status under the block
// mutex. A consumer about to park re-checks the mailbox under the same
// mutex, so one of the two always observes the other.
func (r *localRef) sendPending(ev PendingEvent) {
	cb := r.block
	cb.mailbox.Enqueue(ev)

	var schedule, dead bool
	cb.mu.Lock()
	switch cb.status {
	case StatusSuspended:
		cb.status = StatusScheduled
		if cb.kind == kindFiber {
			schedule = true
		} else {
			cb.enabled.Signal()
		}
	case StatusDead:
		dead = true
	}
	cb.mu.Unlock()

	if schedule {
		r.sys.wakes.Add(1)
		r.sys.scheduleBlock(cb)
	} else if dead {
		// The fiber terminated; drain so the event's release hook still
		// runs. Racing with other senders is safe: disposal is serialized
		// inside the mailbox and the consumer is gone.
		cb.mailbox.Dispose()
		r.sys.deadLetter(cb.path)
	}
}

// deadLetterRef is the reference produced once the system is shutting
// down: sends are discarded, the result is pre-failed.
type deadLetterRef struct {
	sys    *System
	p      Path
	result *Promise[any]
}

func newDeadLetterRef(sys *System, path Path, err error) *deadLetterRef {
	return &deadLetterRef{sys: sys, p: path, result: FailedPromise[any](err)}
}

func (r *deadLetterRef) locality() Locality { return DeadLetter }

func (r *deadLetterRef) path() Path { return r.p }

func (r *deadLetterRef) resultPromise() *Promise[any] { return r.result }

func (r *deadLetterRef) lifecyclePaths() (Path, Path) {
	return UniquePath(), UniquePath()
}

func (r *deadLetterRef) sendPending(ev PendingEvent) {
	ev.Release()
	r.sys.deadLetter(r.p)
}
