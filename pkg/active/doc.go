// Package active defines the contracts between active objects and the
// publish-subscribe core.
//
// This package defines the core abstractions:
//   - Priority: the unique rank of an active object, also its subscription bit
//   - Object: an active object that can receive posted events
//   - Directory: the priority -> object mapping owned by the runtime
//   - Scheduler: the priority-ceiling lock protecting multicast ordering
//   - CriticalSection: short mutual exclusion for single-word updates
//
// The two locking interfaces are deliberately separate. The critical section
// protects memory words; the scheduler ceiling protects message ordering and
// is held for the duration of a whole multicast.
package active
