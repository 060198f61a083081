package io

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	fiber "github.com/joeycumines/go-fiber"
)

// ErrPoolClosed fails promises for operations submitted after Close.
var ErrPoolClosed = errors.New("fiberio: pool is closed")

// Pool is the worker pool executing blocking syscalls for Await and Async
// operations. Workers are plain goroutines; results are
// reported through promises.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	closed atomic.Bool

	inFlight atomic.Int64
	workers  int
}

// PoolOption configures a [Pool].
type PoolOption func(*poolConfig)

type poolConfig struct {
	workers   int
	queueSize int
}

// WithWorkers sets the worker count. The default is [runtime.GOMAXPROCS].
func WithWorkers(n int) PoolOption {
	if n <= 0 {
		panic("fiberio: WithWorkers requires n > 0")
	}
	return func(c *poolConfig) { c.workers = n }
}

// WithQueueSize sets the submission queue buffer. Submitting to a full
// queue blocks the submitter. The default is workers * 32.
func WithQueueSize(size int) PoolOption {
	if size < 0 {
		panic("fiberio: WithQueueSize requires non-negative size")
	}
	return func(c *poolConfig) { c.queueSize = size }
}

// NewPool starts a blocking-operation pool.
func NewPool(opts ...PoolOption) *Pool {
	cfg := poolConfig{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueSize == 0 {
		cfg.queueSize = cfg.workers * 32
	}

	p := &Pool{
		tasks:   make(chan func(), cfg.queueSize),
		workers: cfg.workers,
	}
	p.wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.inFlight.Add(1)
		task()
		p.inFlight.Add(-1)
	}
}

// Workers returns the worker count.
func (p *Pool) Workers() int { return p.workers }

// InFlight returns the number of operations currently executing.
func (p *Pool) InFlight() int64 { return p.inFlight.Load() }

// Close stops the pool after draining queued operations. Operations
// submitted after Close fail with [ErrPoolClosed]. Idempotent. Callers
// must not race Close with submissions still in flight.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
		p.wg.Wait()
	}
}

// submit runs op on the pool, reporting through the returned promise.
func submit[T any](p *Pool, op func() (T, error)) *fiber.Promise[T] {
	pr := fiber.NewPromise[T]()
	if p.closed.Load() {
		pr.Fail(ErrPoolClosed)
		return pr
	}
	p.tasks <- func() {
		v, err := op()
		if err != nil {
			pr.Fail(err)
		} else {
			pr.Fulfill(v)
		}
	}
	return pr
}
