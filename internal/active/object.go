package active

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/equeue"
	"github.com/rmacdonaldsmith/aomesh/internal/sched"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// DefaultQueueLen is the queue capacity used when none is given.
const DefaultQueueLen = 16

// ErrNilHandler is returned when an object is created without a handler
var ErrNilHandler = errors.New("active object handler is required")

// Handler processes one event to completion. The event must not be retained
// after the handler returns.
type Handler func(ctx context.Context, e *event.Event)

// Gate decides when an object may start processing its next event.
type Gate interface {
	WaitRunnable(ctx context.Context, p active.Priority) error
}

// Stats describes the activity of one object.
type Stats struct {
	Name         string          `json:"name"`
	Priority     active.Priority `json:"priority"`
	Queued       int             `json:"queued"`
	QueueMinFree int             `json:"queueMinFree"`
	Processed    uint64          `json:"processed"`
	Panics       uint64          `json:"panics"`
}

// Option configures an Object.
type Option func(*Object)

// WithQueueLen sets the event queue capacity.
func WithQueueLen(n int) Option {
	return func(o *Object) {
		if n > 0 {
			o.queueLen = n
		}
	}
}

// WithPool sets the pool used for reference counting dynamic events.
func WithPool(p event.Pool) Option {
	return func(o *Object) {
		if p != nil {
			o.pool = p
		}
	}
}

// WithGate sets the scheduler gate consulted before each event.
func WithGate(g Gate) Option {
	return func(o *Object) {
		if g != nil {
			o.gate = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Object) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithViolationHandler sets the handler for contract violations raised by
// the object and its queue.
func WithViolationHandler(h contract.Handler) Option {
	return func(o *Object) {
		o.onViolation = h
	}
}

// Object is an active object: a priority, a private event queue and a
// handler run on the object's own goroutine.
type Object struct {
	name     string
	priority active.Priority
	handler  Handler

	queueLen    int
	queue       *equeue.Queue
	pool        event.Pool
	gate        Gate
	logger      *slog.Logger
	onViolation contract.Handler
	check       contract.Module

	running   atomic.Bool
	processed atomic.Uint64
	panics    atomic.Uint64
}

// NewObject creates an active object. It must be registered in a directory
// before it can subscribe.
func NewObject(name string, p active.Priority, h Handler, opts ...Option) (*Object, error) {
	if !p.Valid() {
		return nil, ErrInvalidPriority
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	o := &Object{
		name:     name,
		priority: p,
		handler:  h,
		queueLen: DefaultQueueLen,
		pool:     event.NopPool{},
		gate:     sched.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.check = contract.Module{Name: "active", Handler: o.onViolation}
	o.queue = equeue.New(o.queueLen, o.onViolation)
	o.logger = o.logger.With("ao", name, "priority", int(p))
	return o, nil
}

// Name returns the object name.
func (o *Object) Name() string { return o.name }

// Priority returns the object priority.
func (o *Object) Priority() active.Priority { return o.priority }

// Post queues e for this object and takes a reference to it. A full queue
// is a contract violation.
func (o *Object) Post(e *event.Event, _ any) {
	o.check.Require(100, e != nil)
	o.pool.IncrementRef(e)
	o.queue.Post(e)
}

// Run processes queued events until ctx is done, then releases the events
// still in the queue. Run must not be called concurrently.
func (o *Object) Run(ctx context.Context) error {
	o.check.Require(110, o.running.CompareAndSwap(false, true))
	defer o.running.Store(false)
	defer o.drain()

	o.logger.Debug("active object started")
	for {
		e, err := o.queue.Get(ctx)
		if err != nil {
			o.logger.Debug("active object stopped")
			return nil
		}
		if err := o.gate.WaitRunnable(ctx, o.priority); err != nil {
			o.pool.Reclaim(e)
			return nil
		}
		o.dispatch(ctx, e)
		o.pool.Reclaim(e)
	}
}

func (o *Object) dispatch(ctx context.Context, e *event.Event) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(contract.Violation); ok {
				panic(v)
			}
			o.panics.Add(1)
			o.logger.Error("event handler panicked",
				"event", e.String(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	o.handler(ctx, e)
	o.processed.Add(1)
}

func (o *Object) drain() {
	for {
		e, ok := o.queue.TryGet()
		if !ok {
			return
		}
		o.pool.Reclaim(e)
	}
}

// Running reports whether Run is active.
func (o *Object) Running() bool { return o.running.Load() }

// Stats returns a snapshot of the object's counters.
func (o *Object) Stats() Stats {
	return Stats{
		Name:         o.name,
		Priority:     o.priority,
		Queued:       o.queue.Len(),
		QueueMinFree: o.queue.MinFree(),
		Processed:    o.processed.Load(),
		Panics:       o.panics.Load(),
	}
}

// Verify that Object implements the active.Object interface at compile time
var _ active.Object = (*Object)(nil)
