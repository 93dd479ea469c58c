package api

import (
	"fmt"
	"strings"
)

// GoroutineUnnamed is reported when the panicking goroutine carries no
// name label.
const GoroutineUnnamed = "<unnamed>"

// PanicRecord holds the details of a panic captured on the plugin side of
// the process boundary. It is built once at the moment of the panic and
// never mutated afterwards, except that the parent overwrites Goroutine
// with its own goroutine's name when re-raising, if it has one.
//
// File, Line and Column describe the panic call site. They are zero when
// the runtime gave no location; Go's runtime does not report columns, so
// records produced by a Go plugin never carry one.
type PanicRecord struct {
	Message   string
	Goroutine string
	File      string
	Line      int
	Column    int
}

// String renders the record the way a test author expects to read a panic:
// who panicked, where, and with what message.
func (r PanicRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "goroutine '%s' panicked", r.Goroutine)
	if r.File != "" {
		fmt.Fprintf(&b, " at %s", r.File)
		if r.Line > 0 && r.Column > 0 {
			fmt.Fprintf(&b, ":%d:%d", r.Line, r.Column)
		} else if r.Line > 0 {
			fmt.Fprintf(&b, ":%d", r.Line)
		}
	}
	fmt.Fprintf(&b, ":\n%s", r.Message)
	return b.String()
}

// Error makes the record usable as a panic payload that still prints
// something readable if it escapes past the harness.
func (r PanicRecord) Error() string {
	return r.String()
}
