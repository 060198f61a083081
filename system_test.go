package fiber

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMassSpawnAllFibersFinished(t *testing.T) {
	sys := New()
	defer sys.Shutdown()

	n := scaled(100000)
	var ran atomic.Int64
	for i := 0; i < n; i++ {
		sys.NewBuilder().Run(func(c *Context) {
			ran.Add(1)
		})
	}

	finished := sys.AllFibersFinished()
	within(t, func() {
		for sys.Stats().Running > 0 {
			finished.Await(sys.MainContext())
		}
	})

	assert.Equal(t, int64(n), ran.Load())
	assert.Equal(t, int64(0), sys.Stats().Running)
	assert.Equal(t, int64(n), sys.Stats().Spawned)
}

func TestSpawnAfterShutdownIsDeadLetter(t *testing.T) {
	sys := New(WithWorkers(1))
	sys.Shutdown()

	ref := sys.NewBuilder().Run(func(c *Context) {
		t.Error("task must not run after shutdown")
	})

	assert.Equal(t, DeadLetter, ref.Locality())
	_, err := ref.Result().AwaitBlocking()
	assert.ErrorIs(t, err, ErrShuttingDown)

	// Sends to the dead-letter ref are discarded, not errors.
	released := false
	NewEvent[int]("x").SendWithRelease(ref, 1, func() { released = true })
	assert.True(t, released)
	assert.True(t, sys.ShuttingDown())
}

func TestShutdownIsIdempotent(t *testing.T) {
	sys := New(WithWorkers(1))
	sys.Shutdown()
	sys.Shutdown()
}

func TestFiberizeSendAndReceive(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	hostRef, hostCtx := sys.Fiberize()
	assert.Equal(t, Local, hostRef.Locality())

	evt := NewEvent[int]("n")
	got := 0
	evt.Bind(hostCtx, func(v int) { got = v })
	evt.Send(hostRef, 9)
	hostCtx.Process()
	assert.Equal(t, 9, got)
}

func TestMainFiberIsLocal(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	main := sys.MainFiber()
	assert.Equal(t, Local, main.Locality())
	assert.Equal(t, NamedPath("main"), main.Path())
	assert.Equal(t, main.Path(), sys.MainContext().Path())
}

func TestStatsSnapshot(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	require.Equal(t, 2, sys.Stats().Workers)
	require.Equal(t, int64(0), sys.Stats().Spawned)

	done := NewEvent[Unit]("done")
	host, hostCtx := sys.Fiberize()
	sys.NewBuilder().Run(func(c *Context) {
		done.Send(host, Unit{})
	})

	within(t, func() { done.Await(hostCtx) })
	assert.Equal(t, int64(1), sys.Stats().Spawned)
}

func TestSchedulersExposed(t *testing.T) {
	sys := New(WithWorkers(3))
	defer sys.Shutdown()
	assert.Len(t, sys.Schedulers(), 3)
	for i, s := range sys.Schedulers() {
		assert.Equal(t, i, s.Index())
	}
}
