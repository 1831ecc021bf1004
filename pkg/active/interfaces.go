package active

import "github.com/rmacdonaldsmith/aomesh/pkg/event"

// Priority is the unique scheduling rank of an active object.
// Valid priorities are 1..MaxActive; 0 is reserved as "no priority".
type Priority uint8

// MaxActive is the maximum number of active objects (and the highest priority).
const MaxActive = 64

// Valid reports whether p is a usable active object priority.
func (p Priority) Valid() bool {
	return p > 0 && p <= MaxActive
}

// Object is an independently scheduled reactive component with its own event
// queue. Objects are registered in a Directory under their priority.
type Object interface {
	// Priority returns the unique priority of this active object
	Priority() Priority

	// Post appends the event to the object's queue (FIFO). Queue overflow is a
	// fatal contract violation inside the implementation. The sender is only
	// used for tracing and may be nil.
	Post(e *event.Event, sender any)
}

// Directory maps priorities to registered active objects.
type Directory interface {
	// Lookup returns the object registered at p, or nil.
	Lookup(p Priority) Object
}

// LockStatus records the scheduler state saved by Scheduler.Lock.
type LockStatus struct {
	// Prev is the ceiling in force before the lock was taken
	Prev Priority

	// Ceiling is the ceiling requested by the lock
	Ceiling Priority
}

// Scheduler raises and restores the preemption ceiling. While the ceiling is
// raised, active objects with a priority at or below the ceiling do not start
// processing their next event.
type Scheduler interface {
	// Lock raises the ceiling to at least the given priority.
	Lock(ceiling Priority) LockStatus

	// Unlock restores the ceiling saved in st.
	Unlock(st LockStatus)
}

// CriticalSection provides short mutual exclusion for single-word updates
// (registry bits, event reference counters). It is never held across a loop
// over subscribers.
type CriticalSection interface {
	Enter()
	Exit()
}
