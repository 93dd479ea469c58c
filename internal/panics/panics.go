// Package panics converts a recovered panic into a structured record that
// can cross the process boundary: the payload rendered as text, the name
// of the panicking goroutine, and the source position of the panic site.
//
// Goroutines carry no names in Go, so the harness labels them itself: a
// runner that wants its panics attributed wraps the body in Label. The
// child process runs exactly one test, so the capture slot is effectively
// process-wide state with a single assignment per run.
package panics

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/plugforge/harness/api"
	"github.com/puzpuzpuz/xsync/v3"
)

// Slot is a single-assignment cell for the one panic record expected per
// run. A second fill is silently discarded so that a panic during
// unwinding cannot corrupt the record already captured.
type Slot struct {
	mu     sync.Mutex
	rec    api.PanicRecord
	filled bool
}

// Fill stores rec unless the slot already holds a record. It reports
// whether rec was stored.
func (s *Slot) Fill(rec api.PanicRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled {
		return false
	}
	s.rec = rec
	s.filled = true
	return true
}

// Take returns the captured record. It is only meaningful after the
// catching frame has observed the unwind; ok is false if nothing was
// captured.
func (s *Slot) Take() (rec api.PanicRecord, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, s.filled
}

var goroutineNames = xsync.NewMapOf[uint64, string]()

// Label names the current goroutine for the duration of fn. Records
// captured on this goroutine while fn runs carry the name.
func Label(name string, fn func()) {
	id := goroutineID()
	goroutineNames.Store(id, name)
	defer goroutineNames.Delete(id)
	fn()
}

// CurrentName returns the label of the calling goroutine, or ok=false if
// it was never labelled.
func CurrentName() (string, bool) {
	name, ok := goroutineNames.Load(goroutineID())
	return name, ok
}

// NewRecord builds a record from a value recovered by a deferred function.
// It must be called directly from the recovering frame so that the panic
// site is still on the stack.
func NewRecord(recovered any) api.PanicRecord {
	rec := api.PanicRecord{
		Message:   payloadMessage(recovered),
		Goroutine: api.GoroutineUnnamed,
	}
	if name, ok := CurrentName(); ok && name != "" {
		rec.Goroutine = name
	}
	rec.File, rec.Line = panicSite()
	return rec
}

// payloadMessage renders the panic payload. The probe order is fixed:
// plain string first, then error, then fmt.Stringer. Anything else is
// unprintable and yields an empty message.
func payloadMessage(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// panicSite walks the current stack for the first non-runtime frame above
// runtime.gopanic, which is the frame that called panic (or triggered a
// runtime fault). Returns zero values when no such frame exists.
func panicSite() (file string, line int) {
	var pcs [64]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	unwinding := false
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, "runtime.") {
			if frame.Function == "runtime.gopanic" {
				unwinding = true
			}
		} else if unwinding {
			return frame.File, frame.Line
		}
		if !more {
			return "", 0
		}
	}
}

// goroutineID parses the header line of the current goroutine's stack
// dump. There is no cheaper supported way to identify a goroutine.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := string(buf[:n])
	// "goroutine 123 [running]:"
	rest := strings.TrimPrefix(header, "goroutine ")
	idStr, _, _ := strings.Cut(rest, " ")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
