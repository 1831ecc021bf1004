// Package event defines the events exchanged between active objects.
//
// This package defines the core abstractions for event ownership:
//   - Signal: small integer identifying the kind of an event
//   - Event: the record published and posted to active object queues
//   - Pool: the contract used to share one pooled event between many holders
//
// Events come in two flavors:
//   - Static events (PoolID() == 0) are owned by whoever created them and are
//     never reference counted. They are typically package-level values.
//   - Dynamic events are carved out of a fixed-size event pool. Every holder
//     (the publisher during a multicast, each queue the event sits in) owns one
//     reference, and the event goes back to its pool when the last reference
//     is reclaimed.
//
// The reference counter is only ever mutated inside the runtime's critical
// section (see active.CriticalSection). Pool implementations are the only
// code expected to call Bind, IncRef and DecRef directly.
//
// Example usage:
//
//	e := pools.New(sigTick, 0, tick)  // dynamic event, refcount 0
//	ps.Publish(e, me)                  // multicast to all TICK subscribers
//	// e is returned to its pool once every subscriber has consumed it
package event
