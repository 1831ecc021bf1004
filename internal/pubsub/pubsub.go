// Package pubsub implements the publish-subscribe core of the runtime.
package pubsub

import (
	"fmt"
	"time"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/registry"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// PubSub multicasts events to the active objects subscribed to their signal.
//
// A zero PubSub has an empty signal range, so every operation on it fails its
// range check. Use New.
type PubSub struct {
	reg       *registry.Registry
	maxSignal event.Signal

	dir         active.Directory
	sched       active.Scheduler
	cs          active.CriticalSection
	pool        event.Pool
	tracer      pubsub.Tracer
	onViolation contract.Handler
	clock       func() time.Time
}

// New creates the subscription registry for config.MaxSignal signals.
func New(config *Config) (*PubSub, error) {
	if config == nil {
		return nil, fmt.Errorf("failed to create pubsub: nil config")
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pubsub config: %w", err)
	}

	ps := &PubSub{
		reg:         registry.New(config.MaxSignal, config.OnViolation),
		maxSignal:   config.MaxSignal,
		dir:         config.Directory,
		sched:       config.Scheduler,
		cs:          config.Critical,
		pool:        config.Pool,
		tracer:      config.Tracer,
		onViolation: config.OnViolation,
		clock:       config.Clock,
	}
	config.Logger.Debug("publish-subscribe core initialized", "max_signal", int(config.MaxSignal))
	return ps, nil
}

func (ps *PubSub) check() contract.Module {
	return contract.Module{Name: "pubsub", Handler: ps.onViolation}
}

// MaxSignal returns the exclusive upper bound of the signal range.
func (ps *PubSub) MaxSignal() event.Signal {
	return ps.maxSignal
}

// Publish delivers e to every subscriber of e.Sig, highest priority first.
//
// A dynamic event gets one reference for the duration of the call so that a
// subscriber finishing early cannot recycle it while posting is still in
// progress. The scheduler is locked up to the highest subscriber before the
// first post and unlocked after the last one.
func (ps *PubSub) Publish(e *event.Event, sender any) {
	ps.check().Require(200, e != nil && e.Sig < ps.maxSignal)

	if ps.tracer != nil {
		ps.cs.Enter()
		refs := e.RefCount()
		ps.cs.Exit()
		ps.tracer.OnPublish(pubsub.PublishRecord{
			Time:     ps.clock(),
			Sender:   sender,
			Signal:   e.Sig,
			PoolID:   e.PoolID(),
			RefCount: refs,
		})
	}

	if e.IsDynamic() {
		ps.pool.IncrementRef(e)
	}

	ps.cs.Enter()
	subscribers := ps.reg.Row(e.Sig)
	ps.cs.Exit()

	var lock active.LockStatus
	locked := false
	for {
		p, ok := subscribers.PopHighest()
		if !ok {
			break
		}
		if !locked {
			lock = ps.sched.Lock(p)
			locked = true
		}

		ao := ps.dir.Lookup(p)
		if ao == nil {
			ps.sched.Unlock(lock)
			ps.check().Fail(210)
		}
		ao.Post(e, sender)
	}
	if locked {
		ps.sched.Unlock(lock)
	}

	ps.pool.Reclaim(e)
}

// Subscribe adds ao to the subscribers of sig. Subscribing twice is a no-op.
func (ps *PubSub) Subscribe(ao active.Object, sig event.Signal) {
	p := ps.requireRegistered(300, ao, sig)

	ps.cs.Enter()
	ps.reg.Insert(sig, p)
	ps.cs.Exit()

	if ps.tracer != nil {
		ps.tracer.OnSubscribe(ps.record(ao, p, sig))
	}
}

// Unsubscribe removes ao from the subscribers of sig. Events of sig already
// queued to ao are still delivered.
func (ps *PubSub) Unsubscribe(ao active.Object, sig event.Signal) {
	p := ps.requireRegistered(400, ao, sig)

	ps.cs.Enter()
	removed := ps.reg.Remove(sig, p)
	ps.cs.Exit()

	ps.check().Require(410, removed)
	if ps.tracer != nil {
		ps.tracer.OnUnsubscribe(ps.record(ao, p, sig))
	}
}

// UnsubscribeAll removes ao from every signal. Each signal is cleared in its
// own critical section, so a concurrent publish may see some signals already
// cleared and others not yet.
func (ps *PubSub) UnsubscribeAll(ao active.Object) {
	ps.check().Require(500, ao != nil && ps.dir != nil)
	p := ao.Priority()
	ps.check().Require(500, p.Valid() && ps.dir.Lookup(p) == ao)

	for sig := event.UserSignal; sig < ps.maxSignal; sig++ {
		ps.cs.Enter()
		removed := ps.reg.Remove(sig, p)
		ps.cs.Exit()

		if removed && ps.tracer != nil {
			ps.tracer.OnUnsubscribe(ps.record(ao, p, sig))
		}
	}
}

// IsSubscribed reports whether ao subscribes to sig. Out of range arguments
// report false.
func (ps *PubSub) IsSubscribed(ao active.Object, sig event.Signal) bool {
	if ao == nil || sig < event.UserSignal || sig >= ps.maxSignal || !ao.Priority().Valid() {
		return false
	}
	ps.cs.Enter()
	defer ps.cs.Exit()
	return ps.reg.Has(sig, ao.Priority())
}

// Subscribers returns the priorities subscribed to sig, highest first.
func (ps *PubSub) Subscribers(sig event.Signal) []active.Priority {
	if sig >= ps.maxSignal {
		return nil
	}
	ps.cs.Enter()
	row := ps.reg.Row(sig)
	ps.cs.Exit()
	return row.Priorities()
}

// Snapshot returns the subscribers of every signal that has any.
func (ps *PubSub) Snapshot() map[event.Signal][]active.Priority {
	out := make(map[event.Signal][]active.Priority)
	for sig := event.UserSignal; sig < ps.maxSignal; sig++ {
		if subs := ps.Subscribers(sig); len(subs) > 0 {
			out[sig] = subs
		}
	}
	return out
}

// Subscriptions returns the total number of (signal, object) subscriptions.
func (ps *PubSub) Subscriptions() int {
	if ps.reg == nil {
		return 0
	}
	ps.cs.Enter()
	defer ps.cs.Exit()
	return ps.reg.Len()
}

func (ps *PubSub) requireRegistered(id int, ao active.Object, sig event.Signal) active.Priority {
	check := ps.check()
	check.Require(id, sig >= event.UserSignal && sig < ps.maxSignal && ao != nil)
	p := ao.Priority()
	check.Require(id, p.Valid() && ps.dir.Lookup(p) == ao)
	return p
}

func (ps *PubSub) record(ao active.Object, p active.Priority, sig event.Signal) pubsub.SubscriptionRecord {
	return pubsub.SubscriptionRecord{
		Time:     ps.clock(),
		Object:   ao,
		Priority: p,
		Signal:   sig,
	}
}

// Verify that PubSub implements the pubsub.PubSub interface at compile time
var _ pubsub.PubSub = (*PubSub)(nil)
