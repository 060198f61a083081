package fiber

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// System is the top-level coordinator: it owns the scheduler pool, creates
// fibers, routes sends, tracks global liveness and handles shutdown.
type System struct {
	log *logiface.Logger[logiface.Event]

	schedulers []*Scheduler
	workers    sync.WaitGroup

	running      atomic.Int64
	spawned      atomic.Int64
	steals       atomic.Int64
	wakes        atomic.Int64
	deadLetters  atomic.Int64
	shuttingDown atomic.Bool
	shutdownOnce sync.Once

	allFibersFinished Event[Unit]

	mainBlock *controlBlock
}

// New starts a system. By default it spawns one worker scheduler per CPU;
// see [WithWorkers] and [WithLogger].
func New(opts ...SystemOption) *System {
	cfg := resolveSystemOptions(opts)

	n := cfg.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}

	s := &System{
		log:               cfg.logger,
		allFibersFinished: NewUniqueEvent[Unit](),
	}

	s.mainBlock = newControlBlock(kindFiberized, NamedPath("main"), NewLockFreeMailbox())
	s.mainBlock.status = StatusRunning
	s.mainBlock.ctx = newContext(s, s.mainBlock)

	s.schedulers = make([]*Scheduler, n)
	for i := range s.schedulers {
		s.schedulers[i] = newScheduler(s, i, entropySeed(), entropySeed())
	}
	s.workers.Add(n)
	for _, sched := range s.schedulers {
		go sched.run()
	}

	s.log.Debug().Int("workers", n).Log("system started")
	return s
}

// entropySeed draws a PRNG seed from the system entropy source.
func entropySeed() uint64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		panic("fiber: reading entropy source: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewBuilder returns a builder for spawning a fiber on this system.
func (s *System) NewBuilder() *Builder {
	return &Builder{sys: s}
}

// Schedulers returns the worker schedulers, usable as pin targets.
func (s *System) Schedulers() []*Scheduler {
	return s.schedulers
}

// MainFiber returns the reference of the fiberized block attached to the
// thread that created the system. Lifecycle events of unsupervised fibers
// are delivered here.
func (s *System) MainFiber() FiberRef {
	return FiberRef{impl: &localRef{sys: s, block: s.mainBlock}}
}

// MainContext returns the dispatch context of the main fiberized block.
// It must only be used from the thread that created the system.
func (s *System) MainContext() *Context {
	return s.mainBlock.ctx
}

// Fiberize attaches a non-executing control block to the calling
// goroutine, so a host thread can send and await with the same primitives
// as real fibers. The returned context must only be used from that
// goroutine.
func (s *System) Fiberize() (FiberRef, *Context) {
	cb := newControlBlock(kindFiberized, UniquePath(), NewLockFreeMailbox())
	cb.status = StatusRunning
	c := newContext(s, cb)
	cb.ctx = c
	return FiberRef{impl: &localRef{sys: s, block: cb}}, c
}

// AllFibersFinished is the event delivered to the main fiber whenever the
// number of running fibers reaches zero.
func (s *System) AllFibersFinished() Event[Unit] {
	return s.allFibersFinished
}

// Shutdown stops the system: new spawns return dead-letter references and
// the workers drain their local queues and exit. Shutdown blocks until
// every worker has exited; suspended fibers are abandoned. Idempotent.
//
// Shutdown must be called from a host thread, never from fiber code: a
// fiber waiting for its own worker to exit would deadlock.
func (s *System) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.shuttingDown.Store(true)
		for _, sched := range s.schedulers {
			sched.poke()
		}
		s.workers.Wait()
		s.log.Debug().Log("system shut down")
	})
}

// ShuttingDown reports whether Shutdown has been requested.
func (s *System) ShuttingDown() bool {
	return s.shuttingDown.Load()
}

// scheduleBlock places a Scheduled block onto a run queue: the bound
// scheduler when pinned, else the scheduler the block last ran on (cache
// affinity), else a uniformly random one.
func (s *System) scheduleBlock(cb *controlBlock) {
	target := cb.bound
	if target == nil {
		target = cb.last.Load()
	}
	if target == nil {
		target = s.schedulers[rand.IntN(len(s.schedulers))]
	}
	target.push(cb)
}

// pokePeer picks one random scheduler other than from and wakes it if it is
// parked, giving it a chance to steal from a backlogged queue.
func (s *System) pokePeer(from *Scheduler) {
	n := len(s.schedulers)
	if n < 2 {
		return
	}
	peer := s.schedulers[rand.IntN(n)]
	if peer == from {
		peer = s.schedulers[(peer.idx+1)%n]
	}
	peer.poke()
}

// fiberFinished is called once per terminated fiber. When the running
// count reaches zero the all-fibers-finished event fires at the main
// fiber.
func (s *System) fiberFinished() {
	if s.running.Add(-1) == 0 {
		s.allFibersFinished.Send(s.MainFiber(), Unit{})
	}
}

// deadLetter records a discarded event.
func (s *System) deadLetter(path Path) {
	s.deadLetters.Add(1)
	s.log.Debug().Stringer("path", path).Log("dead letter")
}
