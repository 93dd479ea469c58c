// Package plugrun runs a test body inside the host process. It is linked
// into the compiled test artifact; the embedding runtime hands it a Host
// and the harness reads what it leaves behind on stderr and in the exit
// code.
package plugrun

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/panics"
)

// Host is the surface plugrun needs from the embedding runtime: execute an
// ex-style command, schedule work on the host's main loop, and register an
// async wake source with that loop.
type Host interface {
	Command(cmd string) error
	Schedule(fn func())
	NewWaker(onWake func()) (Waker, error)
}

// Waker signals the host loop from any goroutine. The loop invokes the
// registered callback on its own goroutine at a later iteration.
type Waker interface {
	Wake() error
}

// Host commands issued on the two exit paths. The forced-error variant
// quits with a distinct non-zero exit code so the parent can tell a failed
// test from a crashed host.
const (
	quitCommand  = "qall!"
	abortCommand = "cquit 1"
)

// Run executes body under panic protection and terminates the host with
// an outcome-dependent exit path. It never returns control to the test:
// after it issues the quit command the host is on its way out.
func Run(host Host, body func() error) {
	RunTo(os.Stderr, host, body)
}

// RunTo is Run with the error stream made explicit. The harness's
// self-check uses it to capture the encoded outcome in memory.
func RunTo(stderr io.Writer, host Host, body func() error) {
	exit(host, stderr, execute(body))
}

func execute(body func() error) api.Outcome {
	var slot panics.Slot
	var err error
	unwound := false
	panics.Label("main", func() {
		defer func() {
			if r := recover(); r != nil {
				slot.Fill(panics.NewRecord(r))
				unwound = true
			}
		}()
		err = body()
	})
	if unwound {
		// the slot is guaranteed filled: the recovering frame stored
		// the record before the unwind reached us
		rec, _ := slot.Take()
		return api.Panicked(rec)
	}
	if err != nil {
		return api.Error(err.Error())
	}
	return api.Success()
}

// exit is the only path by which the child side ends. Success quits the
// host normally; any failure first writes the encoded outcome to the
// error stream, then forces a non-zero exit.
func exit(host Host, stderr io.Writer, outcome api.Outcome) {
	if outcome.Kind == api.KindSuccess {
		if err := host.Command(quitCommand); err != nil {
			panic(fmt.Errorf("failed to quit host: %w", err))
		}
		return
	}
	fmt.Fprintln(stderr, outcome.Encode())
	if err := host.Command(abortCommand); err != nil {
		panic(fmt.Errorf("failed to abort host: %w", err))
	}
}

// Recovered converts a value obtained from recover() into an error that
// Terminate understands as a panic failure, with the panic site and
// goroutine name captured. Call it directly from the recovering frame.
func Recovered(r any) error {
	return panics.NewRecord(r)
}

func outcomeFromErr(err error) api.Outcome {
	if err == nil {
		return api.Success()
	}
	var rec api.PanicRecord
	if errors.As(err, &rec) {
		return api.Panicked(rec)
	}
	return api.Error(err.Error())
}
