package event

// Pool manages the shared ownership of dynamic events.
//
// Both methods must be no-ops for static events (PoolID() == 0). Implementations
// mutate the reference counter inside the runtime's critical section.
type Pool interface {
	// IncrementRef takes one more reference to the event.
	IncrementRef(e *Event)

	// Reclaim drops one reference to the event and returns the block to its
	// owning pool when the counter reaches zero.
	Reclaim(e *Event)
}

// NopPool is a Pool for runtimes that only publish static events.
type NopPool struct{}

// IncrementRef does nothing.
func (NopPool) IncrementRef(*Event) {}

// Reclaim does nothing.
func (NopPool) Reclaim(*Event) {}

// Verify that NopPool implements the Pool interface at compile time
var _ Pool = NopPool{}
