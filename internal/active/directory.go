// Package active implements active objects and the directory that maps
// priorities to them.
package active

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rmacdonaldsmith/aomesh/pkg/active"
)

var (
	// ErrInvalidPriority is returned when an object's priority is out of range
	ErrInvalidPriority = errors.New("invalid active object priority")
	// ErrPriorityTaken is returned when another object already uses the priority
	ErrPriorityTaken = errors.New("priority already registered")
)

// Directory is the priority -> object table of a runtime.
type Directory struct {
	mu      sync.RWMutex
	objects [active.MaxActive + 1]active.Object
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Register adds o under its priority.
func (d *Directory) Register(o active.Object) error {
	p := o.Priority()
	if !p.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, p)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if cur := d.objects[p]; cur != nil {
		if cur == o {
			return nil
		}
		return fmt.Errorf("%w: %d", ErrPriorityTaken, p)
	}
	d.objects[p] = o
	return nil
}

// Unregister removes o. It reports whether o was registered.
func (d *Directory) Unregister(o active.Object) bool {
	p := o.Priority()
	if !p.Valid() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.objects[p] != o {
		return false
	}
	d.objects[p] = nil
	return true
}

// Lookup returns the object registered at p, or nil.
func (d *Directory) Lookup(p active.Priority) active.Object {
	if !p.Valid() {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.objects[p]
}

// Objects returns the registered objects in ascending priority order.
func (d *Directory) Objects() []active.Object {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []active.Object
	for _, o := range d.objects {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Verify that Directory implements the active.Directory interface at compile time
var _ active.Directory = (*Directory)(nil)
