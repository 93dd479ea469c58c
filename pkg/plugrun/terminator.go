package plugrun

import (
	"io"
	"os"
	"sync"

	"github.com/plugforge/harness/api"
)

// Terminator lets a test finish outside the synchronous call stack, from
// a callback running on the host loop or from another goroutine.
//
// Terminate must be called exactly once. Dropping a Terminator without
// calling it leaves the host process running forever; the harness has no
// timeout of its own.
type Terminator struct {
	mu      sync.Mutex
	done    bool
	outcome api.Outcome
	waker   Waker
}

// Terminate stores the test's result and wakes the host loop, which
// terminates the host on its own goroutine at a later iteration. A nil
// err terminates successfully; an error produced by Recovered terminates
// as a panic failure; any other error as a logical failure.
//
// A second call is a bug in the test and panics.
func (t *Terminator) Terminate(err error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		panic("plugrun: Terminate called twice")
	}
	t.done = true
	t.outcome = outcomeFromErr(err)
	t.mu.Unlock()

	if wakeErr := t.waker.Wake(); wakeErr != nil {
		panic("plugrun: failed to wake host loop: " + wakeErr.Error())
	}
}

func (t *Terminator) load() api.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// RunAsync invokes body with a Terminator wired to the host loop and
// returns as soon as body does. The test keeps running until some
// callback calls Terminate; only then does the host exit.
func RunAsync(host Host, body func(*Terminator)) error {
	return RunAsyncTo(os.Stderr, host, body)
}

// RunAsyncTo is RunAsync with the error stream made explicit.
func RunAsyncTo(stderr io.Writer, host Host, body func(*Terminator)) error {
	term := &Terminator{}

	waker, err := host.NewWaker(func() {
		outcome := term.load()
		host.Schedule(func() {
			exit(host, stderr, outcome)
		})
	})
	if err != nil {
		return err
	}
	term.waker = waker

	body(term)
	return nil
}
