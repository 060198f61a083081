package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPathConstruction(t *testing.T) {
	a := NewEvent[int]("n")
	b := NewEvent[string]("n")
	assert.Equal(t, a.Path(), b.Path(), "events with the same name share a path")

	u := NewUniqueEvent[int]()
	assert.NotEqual(t, a.Path(), u.Path())
	assert.Equal(t, u.Path(), EventFromPath[int](u.Path()).Path())
}

func TestAwaitReturnsSentValue(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	evt := NewEvent[int]("value")
	fut := RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
		return evt.Await(c), nil
	})

	evt.Send(fut.Ref(), 1234)

	within(t, func() {
		v, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, 1234, v)
	})
}

// TestAwaitConsumesExactlyOne sends several instances of the awaited
// event; each Await call must consume exactly one, in order.
func TestAwaitConsumesExactlyOne(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	evt := NewEvent[int]("seq")
	fut := RunFuture(sys.NewBuilder(), func(c *Context) ([]int, error) {
		var got []int
		for i := 0; i < 3; i++ {
			got = append(got, evt.Await(c))
		}
		return got, nil
	})

	for i := 1; i <= 3; i++ {
		evt.Send(fut.Ref(), i*10)
	}

	within(t, func() {
		v, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, []int{10, 20, 30}, v)
	})
}

// TestAwaitDispatchesOtherEventsWhileWaiting: events for other paths
// received while awaiting must still reach their own handlers.
func TestAwaitDispatchesOtherEventsWhileWaiting(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	side := NewEvent[int]("side")
	stop := NewEvent[Unit]("stop")

	fut := RunFuture(sys.NewBuilder(), func(c *Context) (int, error) {
		sideSum := 0
		ref := side.Bind(c, func(v int) { sideSum += v })
		defer ref.Close()
		stop.Await(c)
		return sideSum, nil
	})

	side.Send(fut.Ref(), 1)
	side.Send(fut.Ref(), 2)
	side.Send(fut.Ref(), 3)
	stop.Send(fut.Ref(), Unit{})

	within(t, func() {
		v, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, 6, v)
	})
}

// TestAwaitHandlerDoesNotLeak: a completed await leaves no live handler
// behind, so a later send of the same event dead-letters.
func TestAwaitHandlerDoesNotLeak(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	self, c := sys.Fiberize()
	evt := NewEvent[int]("once")

	evt.Send(self, 5)
	var got int
	within(t, func() { got = evt.Await(c) })
	require.Equal(t, 5, got)

	before := sys.Stats().DeadLetters
	evt.Send(self, 6)
	c.Process()
	assert.Equal(t, before+1, sys.Stats().DeadLetters)
}

func TestAwaitFromFiberizedThread(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	host, c := sys.Fiberize()
	greet := NewEvent[string]("greet")

	sys.NewBuilder().Run(func(fc *Context) {
		greet.Send(host, "hello")
	})

	within(t, func() {
		assert.Equal(t, "hello", greet.Await(c))
	})
}
