package fiber

// flavor selects how a spawned fiber executes.
type flavor uint8

const (
	flavorMicrothread flavor = iota
	flavorOSThread
)

// Builder is the declarative configuration of a to-be-spawned fiber:
// name, mailbox, pinning, execution flavor and supervision.
//
// Every modifier consumes the receiver and returns a new builder; using a
// consumed builder panics. Use [Builder.Copy] to keep a reusable snapshot.
type Builder struct {
	sys         *System
	invalidated bool

	name    string
	hasName bool
	mailbox MailboxFactory
	pin     *Scheduler
	flavor  flavor
	parent  FiberRef
}

// take consumes the receiver and returns a mutable copy.
func (b *Builder) take() *Builder {
	if b.invalidated {
		panic("fiber: builder already consumed")
	}
	b.invalidated = true
	nb := *b
	nb.invalidated = false
	return &nb
}

// Copy returns a fresh builder preserving all settings, without consuming
// the receiver.
func (b *Builder) Copy() *Builder {
	if b.invalidated {
		panic("fiber: builder already consumed")
	}
	nb := *b
	return &nb
}

// Named sets the fiber's name; its path becomes the named path for it.
func (b *Builder) Named(name string) *Builder {
	nb := b.take()
	nb.name, nb.hasName = name, true
	return nb
}

// Unnamed clears the name; the fiber gets a process-unique path. This is
// the default.
func (b *Builder) Unnamed() *Builder {
	nb := b.take()
	nb.name, nb.hasName = "", false
	return nb
}

// Pinned restricts the fiber to the given scheduler: it is never stolen
// and always wakes there. Obtain the target from [Context.Scheduler] or
// [System.Schedulers].
func (b *Builder) Pinned(s *Scheduler) *Builder {
	if s == nil {
		panic("fiber: Pinned requires a scheduler")
	}
	nb := b.take()
	nb.pin = s
	return nb
}

// Detached removes any pinning. This is the default.
func (b *Builder) Detached() *Builder {
	nb := b.take()
	nb.pin = nil
	return nb
}

// WithMailbox sets the mailbox factory. The default is
// [NewLockFreeMailbox].
func (b *Builder) WithMailbox(f MailboxFactory) *Builder {
	if f == nil {
		panic("fiber: WithMailbox requires a factory")
	}
	nb := b.take()
	nb.mailbox = f
	return nb
}

// Microthread makes the fiber a microthread multiplexed onto the
// scheduler pool. This is the default.
func (b *Builder) Microthread() *Builder {
	nb := b.take()
	nb.flavor = flavorMicrothread
	return nb
}

// OSThread makes the fiber run on its own dedicated OS thread. This
// overrides pinning.
func (b *Builder) OSThread() *Builder {
	nb := b.take()
	nb.flavor = flavorOSThread
	return nb
}

// Supervised directs the fiber's finished and crashed events to parent
// instead of the system's main fiber.
func (b *Builder) Supervised(parent FiberRef) *Builder {
	nb := b.take()
	nb.parent = parent
	return nb
}

// Run consumes the builder and starts the task, returning a reference to
// the new fiber. The result promise is fulfilled with [Unit] when the
// task returns. After shutdown Run returns a dead-letter reference.
func (b *Builder) Run(task func(c *Context)) FiberRef {
	if task == nil {
		panic("fiber: Run requires a task")
	}
	return b.start(func(c *Context) (any, error) {
		task(c)
		return Unit{}, nil
	})
}

// RunFuture consumes the builder and starts a value-returning task,
// wrapping the new fiber's reference with a typed view of its result.
func RunFuture[A any](b *Builder, task func(c *Context) (A, error)) FutureRef[A] {
	if task == nil {
		panic("fiber: RunFuture requires a task")
	}
	ref := b.start(func(c *Context) (any, error) {
		v, err := task(c)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return FutureRef[A]{ref: ref}
}

// ident resolves the path of the fiber being spawned.
func (b *Builder) ident() Path {
	if b.hasName {
		return NamedPath(b.name)
	}
	return UniquePath()
}

func (b *Builder) start(task taskFunc) FiberRef {
	if b.invalidated {
		panic("fiber: builder already consumed")
	}
	b.invalidated = true

	sys := b.sys
	path := b.ident()
	if sys.shuttingDown.Load() {
		return FiberRef{impl: newDeadLetterRef(sys, path, ErrShuttingDown)}
	}

	factory := b.mailbox
	if factory == nil {
		factory = func() Mailbox { return NewLockFreeMailbox() }
	}

	kind := kindFiber
	if b.flavor == flavorOSThread {
		kind = kindThread
	}

	cb := newControlBlock(kind, path, factory())
	cb.task = task
	if kind == kindFiber {
		cb.bound = b.pin
	}
	cb.parent = b.parent
	if cb.parent.impl == nil {
		cb.parent = sys.MainFiber()
	}

	sys.running.Add(1)
	sys.spawned.Add(1)

	if kind == kindThread {
		cb.status = StatusRunning
		go cb.threadMain(sys)
	} else {
		cb.status = StatusScheduled
		sys.scheduleBlock(cb)
	}
	return FiberRef{impl: &localRef{sys: sys, block: cb}}
}

// FutureRef is a typed view over a fiber that yields a result.
type FutureRef[A any] struct {
	ref FiberRef
}

// Ref returns the underlying fiber reference.
func (r FutureRef[A]) Ref() FiberRef { return r.ref }

// Await suspends the calling fiber until the result promise settles and
// returns the typed result.
func (r FutureRef[A]) Await(c *Context) (A, error) {
	return typedResult[A](r.ref.Result().Await(c))
}

// AwaitBlocking blocks the calling goroutine until the result settles.
func (r FutureRef[A]) AwaitBlocking() (A, error) {
	return typedResult[A](r.ref.Result().AwaitBlocking())
}

func typedResult[A any](v any, err error) (A, error) {
	if err != nil {
		var zero A
		return zero, err
	}
	return v.(A), nil
}
