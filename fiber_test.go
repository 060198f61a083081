package fiber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPingPong is the canonical end-to-end scenario: two fibers exchange
// ping/pong for a number of rounds, bootstrapped by sending each the
// other's reference.
func TestPingPong(t *testing.T) {
	sys := New()
	defer sys.Shutdown()

	var (
		initEvt = NewEvent[FiberRef]("init")
		ping    = NewEvent[Unit]("ping")
		pong    = NewEvent[Unit]("pong")
	)
	rounds := scaled(10000)

	pingFut := RunFuture(sys.NewBuilder().Named("ping"), func(c *Context) (int, error) {
		peer := initEvt.Await(c)
		sent := 0
		for i := 0; i < rounds; i++ {
			ping.Send(peer, Unit{})
			sent++
			pong.Await(c)
		}
		return sent, nil
	})

	pongFut := RunFuture(sys.NewBuilder().Named("pong"), func(c *Context) (int, error) {
		peer := initEvt.Await(c)
		received := 0
		for i := 0; i < rounds; i++ {
			ping.Await(c)
			received++
			pong.Send(peer, Unit{})
		}
		return received, nil
	})

	initEvt.Send(pingFut.Ref(), pongFut.Ref())
	initEvt.Send(pongFut.Ref(), pingFut.Ref())

	within(t, func() {
		sent, err := pingFut.AwaitBlocking()
		require.NoError(t, err)
		received, err := pongFut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, rounds, sent)
		assert.Equal(t, rounds, received)
	})
}

// TestPromiseFanOut: one fiber fulfills a promise; many fibers await it
// concurrently. All must resume with the same value.
func TestPromiseFanOut(t *testing.T) {
	sys := New()
	defer sys.Shutdown()

	p := NewPromise[int]()
	start := NewEvent[Unit]("start")

	const awaiters = 100
	futs := make([]FutureRef[int], awaiters)
	for i := range futs {
		futs[i] = RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
			return p.Await(c)
		})
	}

	producer := sys.NewBuilder().Run(func(c *Context) {
		start.Await(c)
		p.Fulfill(77)
	})
	start.Send(producer, Unit{})

	within(t, func() {
		for i := range futs {
			v, err := futs[i].AwaitBlocking()
			require.NoError(t, err)
			assert.Equal(t, 77, v)
		}
	})
}

// TestLostWakeupStress hammers the suspend/enqueue race: every round the
// fiber is about to park exactly when the sender enqueues. The fiber must
// always wake.
func TestLostWakeupStress(t *testing.T) {
	sys := New()
	defer sys.Shutdown()

	ping := NewEvent[int]("stress-ping")
	pong := NewEvent[int]("stress-pong")
	host, hostCtx := sys.Fiberize()

	rounds := scaled(200000)
	echo := RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
		n := 0
		for i := 0; i < rounds; i++ {
			v := ping.Await(c)
			n++
			pong.Send(host, v)
		}
		return n, nil
	})

	within(t, func() {
		for i := 0; i < rounds; i++ {
			ping.Send(echo.Ref(), i)
			got := pong.Await(hostCtx)
			require.Equal(t, i, got)
		}
		n, err := echo.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, rounds, n)
	})
}

// TestCrashPropagation: a panicking fiber goes Dead, fails its result
// promise, and emits a crashed event to its parent; the system keeps
// running.
func TestCrashPropagation(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	parent, parentCtx := sys.Fiberize()

	child := RunFuture(sys.NewBuilder().Supervised(parent), func(c *Context) (int, error) {
		panic("childhood trauma")
	})

	within(t, func() {
		crashErr := child.Ref().Crashed().Await(parentCtx)
		assert.ErrorIs(t, crashErr, ErrFiberCrashed)

		var pe PanicError
		require.ErrorAs(t, crashErr, &pe)
		assert.Equal(t, "childhood trauma", pe.Value)

		_, err := child.AwaitBlocking()
		assert.ErrorIs(t, err, ErrFiberCrashed)
	})

	// The system survives a fiber crash.
	evt := NewEvent[int]("still-alive")
	fut := RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
		return evt.Await(c), nil
	})
	evt.Send(fut.Ref(), 1)
	within(t, func() {
		v, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})
}

// TestErrorReturningFutureFails: an explicit task error fails the result
// promise with that error itself.
func TestErrorReturningFutureFails(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	boom := errors.New("boom")
	fut := RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
		return 0, boom
	})

	within(t, func() {
		_, err := fut.AwaitBlocking()
		assert.ErrorIs(t, err, boom)
	})
}

// TestHandlerStackingAcrossFibers runs the stacked-interception scenario
// inside a real microthread rather than a fiberized block.
func TestHandlerStackingAcrossFibers(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	data := NewEvent[int]("data")
	stop := NewEvent[Unit]("stop")

	fut := RunFuture(sys.NewBuilder(), func(c *Context) ([]string, error) {
		var order []string
		base := data.Bind(c, func(v int) { order = append(order, "base") })
		defer base.Close()
		top := data.Bind(c, func(v int) {
			order = append(order, "top")
			c.Super()
		})
		defer top.Close()

		stop.Await(c)
		return order, nil
	})

	data.Send(fut.Ref(), 1)
	stop.Send(fut.Ref(), Unit{})

	within(t, func() {
		order, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, []string{"top", "base"}, order)
	})
}

// TestFiberSpawnsFiber checks spawning from within fiber code, with the
// child supervised by the spawning fiber.
func TestFiberSpawnsFiber(t *testing.T) {
	sys := New()
	defer sys.Shutdown()

	fut := RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
		child := RunFuture(c.System().NewBuilder().Supervised(c.Self()), func(cc *Context) (int, error) {
			return 21, nil
		})
		v := child.Ref().Finished().Await(c)
		return v.(int) * 2, nil
	})

	within(t, func() {
		v, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})
}
