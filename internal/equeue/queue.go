// Package equeue implements the bounded FIFO event queue of an active object.
package equeue

import (
	"context"
	"sync/atomic"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// Queue is a bounded FIFO of event references. Any number of goroutines may
// post; a single consumer is expected to call Get.
type Queue struct {
	ch      chan *event.Event
	minFree atomic.Int64
	check   contract.Module
}

// New creates a queue holding at most capacity events. Posting to a full
// queue is a contract violation reported through onViolation.
func New(capacity int, onViolation contract.Handler) *Queue {
	q := &Queue{
		ch:    make(chan *event.Event, capacity),
		check: contract.Module{Name: "equeue", Handler: onViolation},
	}
	q.minFree.Store(int64(capacity))
	return q
}

// Post appends e without blocking.
func (q *Queue) Post(e *event.Event) {
	select {
	case q.ch <- e:
	default:
		q.check.Fail(100)
	}

	free := int64(cap(q.ch) - len(q.ch))
	for {
		cur := q.minFree.Load()
		if free >= cur || q.minFree.CompareAndSwap(cur, free) {
			return
		}
	}
}

// Get removes the oldest event, blocking until one is available or ctx is done.
func (q *Queue) Get(ctx context.Context) (*event.Event, error) {
	select {
	case e := <-q.ch:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryGet removes the oldest event if there is one.
func (q *Queue) TryGet() (*event.Event, bool) {
	select {
	case e := <-q.ch:
		return e, true
	default:
		return nil, false
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// MinFree returns the lowest number of free slots observed after a post.
func (q *Queue) MinFree() int { return int(q.minFree.Load()) }
