// Package contract reports violated preconditions.
//
// A contract violation is a programming error: it is never returned to the
// caller as an error value. Each check site carries a stable module name and
// numeric id so that a failure in the field identifies the exact check.
package contract

import (
	"fmt"
	"log/slog"
)

// logger is the package-wide logger used by DefaultHandler.
var logger = slog.Default()

// SetLogger overrides the package logger.
//
// If not set, slog.Default() is used.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Violation identifies a failed check.
type Violation struct {
	Module string
	ID     int
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("%s: contract violation (id %d)", v.Module, v.ID)
}

// Handler is invoked on a contract violation. Handlers must not return
// normally; if one does, the violation is raised as a panic anyway.
type Handler func(v Violation)

// DefaultHandler logs the violation and panics with it.
func DefaultHandler(v Violation) {
	logger.Error("contract violation", "module", v.Module, "id", v.ID)
	panic(v)
}

// Module binds check sites to a module name and a handler.
// The zero Handler means DefaultHandler.
type Module struct {
	Name    string
	Handler Handler
}

// Require fails with id unless cond holds.
func (m Module) Require(id int, cond bool) {
	if !cond {
		m.Fail(id)
	}
}

// Fail reports a violation at id. It does not return.
func (m Module) Fail(id int) {
	v := Violation{Module: m.Name, ID: id}
	h := m.Handler
	if h == nil {
		h = DefaultHandler
	}
	h(v)
	panic(v)
}

// Capture runs fn and returns the violation it raised, if any. Panics that
// are not violations propagate.
func Capture(fn func()) (v Violation, raised bool) {
	defer func() {
		if r := recover(); r != nil {
			got, ok := r.(Violation)
			if !ok {
				panic(r)
			}
			v, raised = got, true
		}
	}()
	fn()
	return Violation{}, false
}
