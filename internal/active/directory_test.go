package active

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

func nopHandler(context.Context, *event.Event) {}

func mustObject(t *testing.T, name string, p active.Priority, opts ...Option) *Object {
	t.Helper()
	o, err := NewObject(name, p, nopHandler, opts...)
	require.NoError(t, err)
	return o
}

func TestDirectory_RegisterLookup(t *testing.T) {
	d := NewDirectory()
	a := mustObject(t, "a", 3)
	b := mustObject(t, "b", 1)

	require.NoError(t, d.Register(a))
	require.NoError(t, d.Register(b))
	require.NoError(t, d.Register(a), "re-registering the same object is a no-op")

	assert.Same(t, a, d.Lookup(3))
	assert.Same(t, b, d.Lookup(1))
	assert.Nil(t, d.Lookup(2))
	assert.Nil(t, d.Lookup(0))
	assert.Nil(t, d.Lookup(active.MaxActive+1))

	assert.Equal(t, []active.Object{b, a}, d.Objects())
}

func TestDirectory_PriorityTaken(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Register(mustObject(t, "first", 5)))

	err := d.Register(mustObject(t, "second", 5))
	assert.ErrorIs(t, err, ErrPriorityTaken)
}

type badPriority struct{}

func (badPriority) Priority() active.Priority { return 0 }
func (badPriority) Post(*event.Event, any)    {}

func TestDirectory_InvalidPriority(t *testing.T) {
	d := NewDirectory()
	assert.ErrorIs(t, d.Register(badPriority{}), ErrInvalidPriority)
	assert.False(t, d.Unregister(badPriority{}))
}

func TestDirectory_Unregister(t *testing.T) {
	d := NewDirectory()
	a := mustObject(t, "a", 7)
	other := mustObject(t, "other", 7)
	require.NoError(t, d.Register(a))

	assert.False(t, d.Unregister(other), "only the registered object can be removed")
	assert.True(t, d.Unregister(a))
	assert.False(t, d.Unregister(a))
	assert.Nil(t, d.Lookup(7))
	assert.Empty(t, d.Objects())
}
