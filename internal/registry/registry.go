// Package registry holds the subscription lists of the publish-subscribe core.
package registry

import (
	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/prioset"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// Registry maps each signal in [0, MaxSignal) to the set of subscribed
// priorities. Rows below event.UserSignal are reserved and stay empty.
//
// A Registry does no locking of its own; callers serialize mutations and
// row copies with their critical section.
type Registry struct {
	rows      []prioset.Set
	maxSignal event.Signal
	check     contract.Module
}

// New allocates a zeroed registry with one row per signal below maxSignal.
// The registry is never resized afterwards. Invalid priorities are reported
// to onViolation as prioset violation 100; nil means contract.DefaultHandler.
func New(maxSignal event.Signal, onViolation contract.Handler) *Registry {
	return &Registry{
		rows:      make([]prioset.Set, maxSignal),
		maxSignal: maxSignal,
		check:     contract.Module{Name: "prioset", Handler: onViolation},
	}
}

// MaxSignal returns the number of rows.
func (r *Registry) MaxSignal() event.Signal {
	return r.maxSignal
}

// Insert sets the bit of p in the row of sig.
func (r *Registry) Insert(sig event.Signal, p active.Priority) {
	r.check.Require(100, p.Valid())
	r.rows[sig].Insert(p)
}

// Remove clears the bit of p in the row of sig and reports whether it was set.
func (r *Registry) Remove(sig event.Signal, p active.Priority) bool {
	r.check.Require(100, p.Valid())
	row := &r.rows[sig]
	if !row.Has(p) {
		return false
	}
	row.Remove(p)
	return true
}

// Has reports whether p is subscribed to sig.
func (r *Registry) Has(sig event.Signal, p active.Priority) bool {
	r.check.Require(100, p.Valid())
	return r.rows[sig].Has(p)
}

// Row returns a copy of the subscriber set of sig.
func (r *Registry) Row(sig event.Signal) prioset.Set {
	return r.rows[sig]
}

// Len returns the total number of (signal, priority) subscriptions.
func (r *Registry) Len() int {
	n := 0
	for i := range r.rows {
		n += r.rows[i].Len()
	}
	return n
}
