// Package pubsub defines the publish-subscribe interface of the runtime.
//
// Publishing an event multicasts it to every active object that subscribed
// to its signal. The event is not copied: every subscriber queue receives the
// same *event.Event, and dynamic events are reference counted so that the
// block returns to its pool exactly once.
//
// Delivery guarantees:
//   - Subscribers are posted to in descending priority order.
//   - While a multicast is in progress the scheduler is locked up to the
//     priority of the highest subscriber, so no subscriber starts processing
//     the event before all of them have it queued. Higher priority objects
//     that did not subscribe are not held back.
//   - Subscription changes take effect for publishes that start after the
//     change. A signal may still be delivered shortly after unsubscribing, and
//     a fresh subscription may miss an event that was already mid-flight.
//
// Example usage:
//
//	ps.Subscribe(counter, sigTick)
//	ps.Publish(pools.New(sigTick, 0, nil), ticker)
//	ps.UnsubscribeAll(counter)
package pubsub
