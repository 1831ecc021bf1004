// Package critsec provides the critical section used by the runtime.
package critsec

import (
	"sync"

	"github.com/rmacdonaldsmith/aomesh/pkg/active"
)

// Mutex is a non-reentrant critical section. The zero value is ready for use.
type Mutex struct {
	mu sync.Mutex
}

// Enter begins the critical section.
func (m *Mutex) Enter() { m.mu.Lock() }

// Exit ends the critical section.
func (m *Mutex) Exit() { m.mu.Unlock() }

// Do runs fn inside the critical section.
func (m *Mutex) Do(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

var _ active.CriticalSection = (*Mutex)(nil)
