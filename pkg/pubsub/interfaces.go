package pubsub

import (
	"time"

	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// PubSub multicasts published events to every active object subscribed to
// the event's signal.
//
// Publish and the subscription mutators treat violated preconditions as fatal
// contract violations; none of them returns an error. The query methods
// report out of range arguments as empty results.
type PubSub interface {
	// Publish delivers e by reference to every subscriber of e.Sig, highest
	// priority first. The sender is only used for tracing and may be nil.
	Publish(e *event.Event, sender any)

	// Subscribe adds ao to the subscribers of sig. Subscribing twice is a no-op.
	Subscribe(ao active.Object, sig event.Signal)

	// Unsubscribe removes ao from the subscribers of sig. Events already
	// queued to ao are still delivered. Unsubscribing a signal that ao is not
	// subscribed to is a contract violation.
	Unsubscribe(ao active.Object, sig event.Signal)

	// UnsubscribeAll removes ao from every signal it is subscribed to.
	UnsubscribeAll(ao active.Object)

	// IsSubscribed reports whether ao currently subscribes to sig.
	IsSubscribed(ao active.Object, sig event.Signal) bool

	// Subscribers returns the priorities subscribed to sig, highest first.
	Subscribers(sig event.Signal) []active.Priority

	// MaxSignal returns the signal range configured at initialization.
	MaxSignal() event.Signal
}

// Tracer observes the publish-subscribe core. Tracers run outside the
// critical section and must not call back into the PubSub.
type Tracer interface {
	OnPublish(r PublishRecord)
	OnSubscribe(r SubscriptionRecord)
	OnUnsubscribe(r SubscriptionRecord)
}

// PublishRecord describes one call to Publish.
type PublishRecord struct {
	Time     time.Time
	Sender   any
	Signal   event.Signal
	PoolID   uint8
	RefCount uint8 // counter value before the publisher's reference was taken
}

// SubscriptionRecord describes one registry change.
type SubscriptionRecord struct {
	Time     time.Time
	Object   active.Object
	Priority active.Priority
	Signal   event.Signal
}
