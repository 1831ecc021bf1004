package event

import "fmt"

// Signal identifies the kind of an event.
type Signal uint16

// Reserved signals used by the state machine processor. Application signals
// start at UserSignal.
const (
	EmptySignal Signal = iota
	EntrySignal
	ExitSignal
	InitSignal

	// UserSignal is the first signal available to applications.
	UserSignal
)

// Event represents a single event multicast to active objects.
type Event struct {
	// Sig is the signal of this event
	Sig Signal

	// Payload carries the application data of the event (read-only once published)
	Payload any

	poolID uint8 // 0 for static events
	refCtr uint8 // meaningful only when poolID != 0
}

// New creates a static event. Static events are never reference counted.
func New(sig Signal, payload any) *Event {
	return &Event{
		Sig:     sig,
		Payload: payload,
	}
}

// PoolID returns the id of the pool owning this event, or 0 for a static event.
func (e *Event) PoolID() uint8 {
	return e.poolID
}

// IsDynamic reports whether the event is owned by an event pool.
func (e *Event) IsDynamic() bool {
	return e.poolID != 0
}

// RefCount returns the number of outstanding references to a dynamic event.
func (e *Event) RefCount() uint8 {
	return e.refCtr
}

// Bind assigns the event to a pool and clears its reference counter.
// It is used by pool implementations when carving blocks.
func (e *Event) Bind(poolID uint8) {
	e.poolID = poolID
	e.refCtr = 0
}

// IncRef increments the reference counter and returns the new value. The
// counter wraps past 255; pools check for that before calling IncRef.
// Must be called inside the critical section.
func (e *Event) IncRef() uint8 {
	e.refCtr++
	return e.refCtr
}

// DecRef decrements the reference counter and returns the new value.
// Must be called inside the critical section.
func (e *Event) DecRef() uint8 {
	e.refCtr--
	return e.refCtr
}

// String returns a compact description of the event for logs.
func (e *Event) String() string {
	if e.poolID == 0 {
		return fmt.Sprintf("Event{sig=%d static}", e.Sig)
	}
	return fmt.Sprintf("Event{sig=%d pool=%d ref=%d}", e.Sig, e.poolID, e.refCtr)
}
