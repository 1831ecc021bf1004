package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// delivery is one observed call to Post.
type delivery struct {
	priority active.Priority
	event    *event.Event
	refs     uint8
	ceiling  active.Priority
}

type fakeDirectory map[active.Priority]active.Object

func (d fakeDirectory) Lookup(p active.Priority) active.Object {
	if o, ok := d[p]; ok {
		return o
	}
	return nil
}

// fakeScheduler records lock and unlock calls.
type fakeScheduler struct {
	locks   []active.LockStatus
	unlocks []active.LockStatus
	ceiling active.Priority
}

func (s *fakeScheduler) Lock(p active.Priority) active.LockStatus {
	st := active.LockStatus{Prev: s.ceiling, Ceiling: p}
	s.locks = append(s.locks, st)
	if p > s.ceiling {
		s.ceiling = p
	}
	return st
}

func (s *fakeScheduler) Unlock(st active.LockStatus) {
	s.unlocks = append(s.unlocks, st)
	s.ceiling = st.Prev
}

// countingPool reference counts dynamic events and counts recycled blocks.
type countingPool struct {
	mu         sync.Mutex
	increments int
	reclaims   int
	recycled   int
}

func (p *countingPool) IncrementRef(e *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.increments++
	if e.IsDynamic() {
		e.IncRef()
	}
}

func (p *countingPool) Reclaim(e *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reclaims++
	if !e.IsDynamic() {
		return
	}
	if e.DecRef() == 0 {
		p.recycled++
	}
}

// fakeObject records posts into a shared log. When holdRefs is set it takes
// a reference on every post like a real queue does.
type fakeObject struct {
	priority active.Priority
	holdRefs bool
	pool     *countingPool
	sched    *fakeScheduler
	log      *[]delivery
	held     []*event.Event
}

func (o *fakeObject) Priority() active.Priority { return o.priority }

func (o *fakeObject) Post(e *event.Event, _ any) {
	if o.holdRefs {
		o.pool.IncrementRef(e)
		o.held = append(o.held, e)
	}
	*o.log = append(*o.log, delivery{
		priority: o.priority,
		event:    e,
		refs:     e.RefCount(),
		ceiling:  o.sched.ceiling,
	})
}

// consume drops the references taken by Post.
func (o *fakeObject) consume() {
	for _, e := range o.held {
		o.pool.Reclaim(e)
	}
	o.held = nil
}

type recordingTracer struct {
	publishes    []pubsub.PublishRecord
	subscribes   []pubsub.SubscriptionRecord
	unsubscribes []pubsub.SubscriptionRecord
}

func (r *recordingTracer) OnPublish(rec pubsub.PublishRecord)          { r.publishes = append(r.publishes, rec) }
func (r *recordingTracer) OnSubscribe(rec pubsub.SubscriptionRecord)   { r.subscribes = append(r.subscribes, rec) }
func (r *recordingTracer) OnUnsubscribe(rec pubsub.SubscriptionRecord) { r.unsubscribes = append(r.unsubscribes, rec) }

type fixture struct {
	ps      *PubSub
	dir     fakeDirectory
	sched   *fakeScheduler
	pool    *countingPool
	tracer  *recordingTracer
	objects map[active.Priority]*fakeObject
	posts   []delivery
}

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func quietViolation(v contract.Violation) { panic(v) }

func newFixture(t *testing.T, maxSignal event.Signal, priorities ...active.Priority) *fixture {
	t.Helper()
	f := &fixture{
		dir:     fakeDirectory{},
		sched:   &fakeScheduler{},
		pool:    &countingPool{},
		tracer:  &recordingTracer{},
		objects: map[active.Priority]*fakeObject{},
	}
	for _, p := range priorities {
		o := &fakeObject{priority: p, pool: f.pool, sched: f.sched, log: &f.posts}
		f.objects[p] = o
		f.dir[p] = o
	}

	cfg := NewConfig(maxSignal, f.dir).
		WithScheduler(f.sched).
		WithPool(f.pool).
		WithTracer(f.tracer).
		WithViolationHandler(quietViolation).
		WithClock(func() time.Time { return fixedTime })

	ps, err := New(cfg)
	require.NoError(t, err)
	f.ps = ps
	return f
}

func (f *fixture) postOrder() []active.Priority {
	out := make([]active.Priority, 0, len(f.posts))
	for _, d := range f.posts {
		out = append(out, d.priority)
	}
	return out
}

func dynamicEvent(sig event.Signal, poolID uint8) *event.Event {
	e := &event.Event{Sig: sig}
	e.Bind(poolID)
	return e
}
