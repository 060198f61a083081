package fiber

import (
	"sync"
	"sync/atomic"
)

// Mailbox is the per-fiber queue of pending events.
//
// Implementations must be safe for any number of concurrent producers
// calling Enqueue; Dequeue is called only by the owning fiber (single
// consumer). Events from a single producer are observed in the order sent,
// with a happens-before edge from each Enqueue to the Dequeue that returns
// it. Enqueue is non-blocking and never fails: mailboxes are unbounded.
//
// Dispose releases every still-queued event exactly once. It must only be
// called once the consumer has stopped; after Dispose, Enqueue releases and
// discards.
type Mailbox interface {
	Enqueue(ev PendingEvent)
	Dequeue() (PendingEvent, bool)
	Dispose()
}

// MailboxFactory produces a fresh mailbox for a fiber being spawned.
type MailboxFactory func() Mailbox

// mailboxNode is a link in the lock-free mailbox. Nodes are recycled through
// a pool; a node is only returned after the consumer has moved past it.
type mailboxNode struct {
	next atomic.Pointer[mailboxNode]
	ev   PendingEvent
}

var mailboxNodePool = sync.Pool{
	New: func() any {
		return &mailboxNode{}
	},
}

// LockFreeMailbox is the default mailbox: an unbounded MPSC intrusive
// linked queue. Producers contend only on a single atomic tail swap; the
// consumer walks the list without synchronization.
//
// A producer that has swapped the tail but not yet linked its predecessor
// leaves a transient gap; the consumer observes an empty queue across the
// gap. The wake protocol tolerates this: every enqueue is followed by a
// status check under the block mutex, so the event is never lost.
type LockFreeMailbox struct {
	head      *mailboxNode // consumer-owned; points at the last consumed node
	tail      atomic.Pointer[mailboxNode]
	disposed  atomic.Bool
	disposeMu sync.Mutex
}

// NewLockFreeMailbox returns an empty lock-free mailbox.
func NewLockFreeMailbox() *LockFreeMailbox {
	m := &LockFreeMailbox{}
	stub := &mailboxNode{}
	m.head = stub
	m.tail.Store(stub)
	return m
}

// Enqueue appends ev. Non-blocking, safe for concurrent producers.
func (m *LockFreeMailbox) Enqueue(ev PendingEvent) {
	if m.disposed.Load() {
		ev.Release()
		return
	}
	n := mailboxNodePool.Get().(*mailboxNode)
	n.ev = ev
	n.next.Store(nil)
	prev := m.tail.Swap(n)
	prev.next.Store(n)
}

// Dequeue removes the oldest visible event. Single consumer only.
func (m *LockFreeMailbox) Dequeue() (PendingEvent, bool) {
	head := m.head
	next := head.next.Load()
	if next == nil {
		return PendingEvent{}, false
	}
	ev := next.ev
	next.ev = PendingEvent{}
	m.head = next
	// The old head is fully consumed; recycle it.
	head.next.Store(nil)
	mailboxNodePool.Put(head)
	return ev, true
}

// Dispose drains and releases every queued event. Idempotent; callable by
// multiple goroutines (the dead fiber's trampoline and racing senders),
// serialized internally. See the send path in fiberref.go: a sender that
// enqueued concurrently with fiber death observes StatusDead afterwards and
// disposes again, so its event is still released.
func (m *LockFreeMailbox) Dispose() {
	m.disposeMu.Lock()
	defer m.disposeMu.Unlock()
	m.disposed.Store(true)
	for {
		ev, ok := m.Dequeue()
		if !ok {
			return
		}
		ev.Release()
	}
}

// mutexMailboxCompactThreshold bounds the dead prefix retained by the
// slice-backed mailbox before it is copied down.
const mutexMailboxCompactThreshold = 512

// MutexMailbox is a lock-based mailbox variant. It trades the lock-free
// enqueue for exact FIFO across the disposal path and trivially auditable
// behavior, which makes it the variant of choice when debugging.
type MutexMailbox struct {
	mu       sync.Mutex
	events   []PendingEvent
	head     int
	disposed bool
}

// NewMutexMailbox returns an empty lock-based mailbox.
func NewMutexMailbox() *MutexMailbox {
	return &MutexMailbox{}
}

// Enqueue appends ev under the mailbox lock.
func (m *MutexMailbox) Enqueue(ev PendingEvent) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		ev.Release()
		return
	}
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

// Dequeue removes the oldest event under the mailbox lock.
func (m *MutexMailbox) Dequeue() (PendingEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.head >= len(m.events) {
		m.events = m.events[:0]
		m.head = 0
		return PendingEvent{}, false
	}
	ev := m.events[m.head]
	m.events[m.head] = PendingEvent{}
	m.head++
	if m.head > mutexMailboxCompactThreshold && m.head > len(m.events)/2 {
		n := copy(m.events, m.events[m.head:])
		clear(m.events[n:])
		m.events = m.events[:n]
		m.head = 0
	}
	return ev, true
}

// Dispose releases every queued event and marks the mailbox closed.
func (m *MutexMailbox) Dispose() {
	m.mu.Lock()
	m.disposed = true
	pending := m.events[m.head:]
	m.events = nil
	m.head = 0
	m.mu.Unlock()
	for i := range pending {
		pending[i].Release()
	}
}
