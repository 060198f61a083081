package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderModifiersInvalidateReceiver(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	b := sys.NewBuilder()
	named := b.Named("worker")

	assert.Panics(t, func() { b.Named("again") }, "consumed builder must not be reusable")
	assert.NotPanics(t, func() { named.Run(func(c *Context) {}) })
}

func TestBuilderRunConsumes(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	b := sys.NewBuilder()
	b.Run(func(c *Context) {})
	assert.Panics(t, func() { b.Run(func(c *Context) {}) })
}

func TestBuilderCopyPreservesSettings(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	proto := sys.NewBuilder().Named("twin")
	first := proto.Copy().Run(func(c *Context) {})
	second := proto.Run(func(c *Context) {})

	assert.Equal(t, NamedPath("twin"), first.Path())
	assert.Equal(t, NamedPath("twin"), second.Path())
}

func TestBuilderNamedAndUnnamedPaths(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	named := sys.NewBuilder().Named("alpha").Run(func(c *Context) {})
	assert.Equal(t, NamedPath("alpha"), named.Path())

	anon := sys.NewBuilder().Run(func(c *Context) {})
	assert.Equal(t, PathUnique, anon.Path().Kind())

	cleared := sys.NewBuilder().Named("beta").Unnamed().Run(func(c *Context) {})
	assert.Equal(t, PathUnique, cleared.Path().Kind())
}

func TestBuilderWithMailbox(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	made := 0
	evt := NewEvent[int]("n")
	fut := RunFuture(sys.NewBuilder().WithMailbox(func() Mailbox {
		made++
		return NewMutexMailbox()
	}), func(c *Context) (int, error) {
		return evt.Await(c), nil
	})

	require.Equal(t, 1, made)
	evt.Send(fut.Ref(), 3)
	within(t, func() {
		v, err := fut.AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})
}

func TestBuilderOptionValidation(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	assert.Panics(t, func() { sys.NewBuilder().Pinned(nil) })
	assert.Panics(t, func() { sys.NewBuilder().WithMailbox(nil) })
	assert.Panics(t, func() { sys.NewBuilder().Run(nil) })
}

func TestRunResultIsUnit(t *testing.T) {
	sys := New(WithWorkers(1))
	defer sys.Shutdown()

	ref := sys.NewBuilder().Run(func(c *Context) {})
	within(t, func() {
		v, err := ref.Result().AwaitBlocking()
		require.NoError(t, err)
		assert.Equal(t, Unit{}, v)
	})
}

func TestSupervisedLifecycleEvents(t *testing.T) {
	sys := New(WithWorkers(2))
	defer sys.Shutdown()

	parent, parentCtx := sys.Fiberize()

	child := RunFuture(sys.NewBuilder().Supervised(parent), func(c *Context) (string, error) {
		return "result", nil
	})

	within(t, func() {
		v := child.Ref().Finished().Await(parentCtx)
		assert.Equal(t, "result", v)
	})
}
