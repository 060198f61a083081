package fiber

import (
	"math/rand/v2"
	"sync"
)

// Scheduler is one worker of the pool: a run queue of Scheduled control
// blocks, a steal-victim PRNG, and the loop that switches onto one fiber
// at a time.
//
// The deque is owned by the worker; stealers attempt a non-blocking lock
// and take from the opposite end, failing silently under contention.
type Scheduler struct {
	sys *System
	idx int
	rng *rand.Rand // victim choice; worker-local, never shared

	mu     sync.Mutex
	cond   *sync.Cond
	queue  blockDeque
	parked bool
}

func newScheduler(sys *System, idx int, seed1, seed2 uint64) *Scheduler {
	s := &Scheduler{
		sys: sys,
		idx: idx,
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Index returns the scheduler's position in the pool.
func (s *Scheduler) Index() int { return s.idx }

// push queues a Scheduled block and unparks the worker. When a backlog
// builds up, a random peer is poked (woken if parked) so it can steal.
func (s *Scheduler) push(cb *controlBlock) {
	s.mu.Lock()
	s.queue.pushBack(cb)
	backlog := s.queue.len()
	if s.parked {
		s.cond.Signal()
	}
	s.mu.Unlock()
	if backlog > 1 {
		s.sys.pokePeer(s)
	}
}

// poke wakes the worker if it is parked.
func (s *Scheduler) poke() {
	s.mu.Lock()
	if s.parked {
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// run is the worker main loop. It exits once the system is shutting down
// and the local queue has drained.
func (s *Scheduler) run() {
	defer s.sys.workers.Done()
	for {
		cb := s.next()
		if cb == nil {
			return
		}
		s.runBlock(cb)
	}
}

// next pops local work, then tries to steal, then parks. Returns nil on
// shutdown once the local queue is empty.
func (s *Scheduler) next() *controlBlock {
	for {
		s.mu.Lock()
		if cb := s.queue.popBack(); cb != nil {
			s.mu.Unlock()
			return cb
		}
		s.mu.Unlock()

		if s.sys.shuttingDown.Load() {
			return nil
		}
		if cb := s.steal(); cb != nil {
			return cb
		}

		s.mu.Lock()
		if cb := s.queue.popBack(); cb != nil {
			s.mu.Unlock()
			return cb
		}
		if s.sys.shuttingDown.Load() {
			s.mu.Unlock()
			return nil
		}
		s.parked = true
		s.cond.Wait()
		s.parked = false
		s.mu.Unlock()
	}
}

// steal sweeps the pool once, starting from a uniformly random victim.
func (s *Scheduler) steal() *controlBlock {
	peers := s.sys.schedulers
	n := len(peers)
	if n < 2 {
		return nil
	}
	start := s.rng.IntN(n)
	for i := 0; i < n; i++ {
		victim := peers[(start+i)%n]
		if victim == s {
			continue
		}
		if cb := victim.stealFrom(); cb != nil {
			s.sys.steals.Add(1)
			return cb
		}
	}
	return nil
}

// stealFrom is called by thieves: a non-blocking attempt on this
// scheduler's deque, taking from the front. Pinned blocks are skipped.
func (s *Scheduler) stealFrom() *controlBlock {
	if !s.mu.TryLock() {
		return nil
	}
	cb := s.queue.popFrontUnpinned()
	s.mu.Unlock()
	return cb
}

// runBlock moves the block to Running and switches onto its stack, then
// acts on the instruction the fiber left behind.
func (s *Scheduler) runBlock(cb *controlBlock) {
	cb.mu.Lock()
	if cb.status != StatusScheduled {
		cb.mu.Unlock()
		panic("fiber: running a block that is not scheduled: " + cb.status.String())
	}
	cb.status = StatusRunning
	cb.last.Store(s)
	cb.mu.Unlock()

	switch cb.switchTo(s.sys) {
	case instrYielded:
		cb.mu.Lock()
		cb.status = StatusScheduled
		cb.mu.Unlock()
		s.push(cb)
	case instrSuspended:
		// The block set itself Suspended under its own mutex; it now
		// belongs to its mailbox and outstanding references.
	case instrTerminated:
		s.sys.fiberFinished()
	}
}
