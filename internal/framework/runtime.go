// Package framework implements the runtime hosting active objects.
package framework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rmacdonaldsmith/aomesh/internal/active"
	"github.com/rmacdonaldsmith/aomesh/internal/critsec"
	"github.com/rmacdonaldsmith/aomesh/internal/evtpool"
	"github.com/rmacdonaldsmith/aomesh/internal/pubsub"
	"github.com/rmacdonaldsmith/aomesh/internal/sched"
	activepkg "github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/framework"
	pubsubpkg "github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// ErrClosed is returned when a closed runtime is used
var ErrClosed = errors.New("runtime is closed")

// Runtime implements the framework.Framework interface.
// It wires one critical section, scheduler, pool manager, directory and
// publish-subscribe core together and runs the active objects.
type Runtime struct {
	mu     sync.RWMutex
	config *Config
	logger *slog.Logger

	// Core components
	cs      *critsec.Mutex
	ceiling *sched.Ceiling
	pools   *evtpool.Manager
	dir     *active.Directory
	ps      *pubsub.PubSub
	objects []*active.Object

	// State management
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New creates a runtime with the given configuration. The active objects
// do not run until Start is called.
func New(config *Config) (*Runtime, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cs := &critsec.Mutex{}
	ceiling := sched.NewCeiling()
	dir := active.NewDirectory()

	pools := evtpool.NewManager(cs, config.OnViolation)
	for _, p := range config.Pools {
		if _, err := pools.Add(p.BlockSize, p.Blocks); err != nil {
			return nil, fmt.Errorf("failed to create event pool: %w", err)
		}
	}

	psConfig := pubsub.NewConfig(config.MaxSignal, dir).
		WithCriticalSection(cs).
		WithScheduler(ceiling).
		WithPool(pools).
		WithTracer(config.Tracer).
		WithLogger(config.Logger).
		WithViolationHandler(config.OnViolation)
	ps, err := pubsub.New(psConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}

	return &Runtime{
		config:  config,
		logger:  config.Logger,
		cs:      cs,
		ceiling: ceiling,
		pools:   pools,
		dir:     dir,
		ps:      ps,
	}, nil
}

// NewObject creates an active object wired to this runtime's pools and
// scheduler and registers it.
func (r *Runtime) NewObject(name string, p activepkg.Priority, h active.Handler, opts ...active.Option) (*active.Object, error) {
	base := []active.Option{
		active.WithQueueLen(r.config.QueueLen),
		active.WithPool(r.pools),
		active.WithGate(r.ceiling),
		active.WithLogger(r.logger),
		active.WithViolationHandler(r.config.OnViolation),
	}
	o, err := active.NewObject(name, p, h, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create active object %q: %w", name, err)
	}
	if err := r.Register(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Register adds o to the directory. If the runtime is already started the
// object starts running immediately.
func (r *Runtime) Register(o *active.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.dir.Register(o); err != nil {
		return fmt.Errorf("failed to register active object %q: %w", o.Name(), err)
	}
	r.objects = append(r.objects, o)

	if r.started {
		r.run(o)
	}
	return nil
}

// Start runs every registered active object on its own goroutine.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("cannot start closed runtime")
	}
	if r.started {
		return nil // Already started, idempotent
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.group, r.ctx = errgroup.WithContext(runCtx)
	r.cancel = cancel
	for _, o := range r.objects {
		r.run(o)
	}

	r.started = true
	r.logger.Info("runtime started", "objects", len(r.objects), "max_signal", int(r.config.MaxSignal))
	return nil
}

func (r *Runtime) run(o *active.Object) {
	ctx := r.ctx
	r.group.Go(func() error {
		return o.Run(ctx)
	})
}

// Stop cancels every active object and waits until they have drained their
// queues or ctx is done.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil // Not started, idempotent
	}
	r.started = false
	cancel, group := r.cancel, r.group
	r.mu.Unlock()

	cancel()
	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		r.logger.Info("runtime stopped")
		return err
	case <-ctx.Done():
		return fmt.Errorf("failed to stop runtime: %w", ctx.Err())
	}
}

// Close stops the runtime and marks it permanently closed.
func (r *Runtime) Close() error {
	if err := r.Stop(context.Background()); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// PubSub returns the publish-subscribe core.
func (r *Runtime) PubSub() pubsubpkg.PubSub {
	return r.ps
}

// Snapshot returns the subscribers of every signal that has any.
func (r *Runtime) Snapshot() map[event.Signal][]activepkg.Priority {
	return r.ps.Snapshot()
}

// Pools returns the event pool manager.
func (r *Runtime) Pools() *evtpool.Manager {
	return r.pools
}

// PoolStats returns a snapshot of every event pool.
func (r *Runtime) PoolStats() []evtpool.Stats {
	return r.pools.Stats()
}

// ObjectStats returns the counters of every registered active object.
func (r *Runtime) ObjectStats() []active.Stats {
	objects := r.Objects()
	out := make([]active.Stats, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.Stats())
	}
	return out
}

// Scheduler returns the scheduler lock shared by the active objects.
func (r *Runtime) Scheduler() *sched.Ceiling {
	return r.ceiling
}

// Objects returns the registered active objects in registration order.
func (r *Runtime) Objects() []*active.Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*active.Object(nil), r.objects...)
}

// Health returns the overall health status of this runtime.
func (r *Runtime) Health(ctx context.Context) (framework.HealthStatus, error) {
	r.mu.RLock()
	started, closed := r.started, r.closed
	objects := append([]*active.Object(nil), r.objects...)
	r.mu.RUnlock()

	status := framework.HealthStatus{
		Running:       started,
		ActiveObjects: len(objects),
		Subscriptions: r.ps.Subscriptions(),
	}
	for _, s := range r.pools.Stats() {
		status.FreeBlocks += s.Free
		status.TotalBlocks += s.Blocks
	}
	stopped := 0
	for _, o := range objects {
		status.HandlerPanics += o.Stats().Panics
		if !o.Running() {
			stopped++
		}
	}

	switch {
	case closed:
		status.Message = "runtime is closed"
	case !started:
		status.Message = "runtime is not started"
	case stopped > 0:
		status.Message = fmt.Sprintf("%d active objects are not running", stopped)
	default:
		status.Healthy = true
		status.Message = "all active objects running"
	}
	return status, nil
}

// Verify that Runtime implements the framework.Framework interface at compile time
var _ framework.Framework = (*Runtime)(nil)
