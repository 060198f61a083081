package fiber

import "sync"

// PromiseState is the lifecycle state of a [Promise]. A promise starts
// Empty and settles exactly once to Fulfilled or Failed; transitions are
// irreversible.
type PromiseState uint8

const (
	// PromiseEmpty means the promise has not been settled yet.
	PromiseEmpty PromiseState = iota
	// PromiseFulfilled means the promise holds a value.
	PromiseFulfilled
	// PromiseFailed means the promise holds an error.
	PromiseFailed
)

// String returns a human-readable representation of the state.
func (s PromiseState) String() string {
	switch s {
	case PromiseEmpty:
		return "Empty"
	case PromiseFulfilled:
		return "Fulfilled"
	case PromiseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Promise is a single-assignment result cell awaited by any number of
// fibers or threads.
//
// Settling wakes all current and future awaiters. Fiber awaiters are
// notified in registration order; the wake order of goroutines blocked in
// AwaitBlocking is not defined. Settling an already-settled promise is a
// usage error and panics.
type Promise[A any] struct {
	mu       sync.Mutex
	cond     *sync.Cond // lazily created for blocking awaiters
	state    PromiseState
	value    A
	err      error
	watchers []func() // settle callbacks, invoked in registration order
}

// NewPromise returns an empty promise.
func NewPromise[A any]() *Promise[A] {
	return &Promise[A]{}
}

// FailedPromise returns a promise pre-failed with err.
func FailedPromise[A any](err error) *Promise[A] {
	return &Promise[A]{state: PromiseFailed, err: err}
}

// State returns the current state.
func (p *Promise[A]) State() PromiseState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Fulfill settles the promise with a value, waking all awaiters.
// Panics if the promise is already settled.
func (p *Promise[A]) Fulfill(v A) {
	p.settle(PromiseFulfilled, v, nil)
}

// Fail settles the promise with an error, waking all awaiters.
// Panics if the promise is already settled.
func (p *Promise[A]) Fail(err error) {
	var zero A
	p.settle(PromiseFailed, zero, err)
}

func (p *Promise[A]) settle(state PromiseState, v A, err error) {
	p.mu.Lock()
	if p.state != PromiseEmpty {
		p.mu.Unlock()
		panic("fiber: promise already settled")
	}
	p.state = state
	p.value = v
	p.err = err
	watchers := p.watchers
	p.watchers = nil
	if p.cond != nil {
		p.cond.Broadcast()
	}
	p.mu.Unlock()
	for _, w := range watchers {
		w()
	}
}

// Await returns the settled value, suspending the calling fiber until the
// promise settles.
//
// From a microthread the wait is cooperative: a one-shot completion event
// is delivered to the awaiting fiber's own mailbox, so other events keep
// dispatching while it waits. From an OS-thread fiber or a fiberized host
// thread the wait blocks on an internal condition variable.
func (p *Promise[A]) Await(c *Context) (A, error) {
	if c.block.kind != kindFiber {
		return p.AwaitBlocking()
	}

	completion := NewUniqueEvent[Unit]()
	self := c.Self()

	p.mu.Lock()
	if p.state != PromiseEmpty {
		defer p.mu.Unlock()
		return p.value, p.err
	}
	p.watchers = append(p.watchers, func() {
		completion.Send(self, Unit{})
	})
	p.mu.Unlock()

	completion.Await(c)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// AwaitBlocking blocks the calling goroutine until the promise settles.
// It does not process any events; use Await from fiber code.
func (p *Promise[A]) AwaitBlocking() (A, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.state == PromiseEmpty {
		if p.cond == nil {
			p.cond = sync.NewCond(&p.mu)
		}
		p.cond.Wait()
	}
	return p.value, p.err
}

// Poll returns the settled value without waiting. ok is false while the
// promise is empty.
func (p *Promise[A]) Poll() (v A, err error, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PromiseEmpty {
		return v, nil, false
	}
	return p.value, p.err, true
}
