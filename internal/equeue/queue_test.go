package equeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

func TestQueue_FIFO(t *testing.T) {
	q := New(4, nil)
	a := event.New(event.UserSignal, 1)
	b := event.New(event.UserSignal, 2)

	q.Post(a)
	q.Post(b)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.MinFree())

	got, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, ok := q.TryGet()
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = q.TryGet()
	assert.False(t, ok)
	assert.Equal(t, 2, q.MinFree(), "low watermark is sticky")
}

func TestQueue_OverflowIsViolation(t *testing.T) {
	q := New(1, nil)
	q.Post(event.New(event.UserSignal, nil))

	v, raised := contract.Capture(func() { q.Post(event.New(event.UserSignal, nil)) })
	require.True(t, raised)
	assert.Equal(t, contract.Violation{Module: "equeue", ID: 100}, v)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_GetHonorsContext(t *testing.T) {
	q := New(1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	e, err := q.Get(ctx)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 4, 100
	q := New(producers*perProducer, nil)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Post(event.New(event.UserSignal, i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
	assert.Equal(t, 0, q.MinFree())
}
