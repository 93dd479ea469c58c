package plugrun

import (
	"sync"

	"github.com/plugforge/harness/internal/eventloop"
)

// LoopbackHost is a Host backed by an in-process event loop instead of a
// real host binary. The harness's doctor command uses it to exercise the
// whole child-side protocol without spawning anything, and the plugrun
// tests run against it.
type LoopbackHost struct {
	loop *eventloop.Loop

	mu       sync.Mutex
	commands []string

	quit chan string
}

func NewLoopbackHost() *LoopbackHost {
	return &LoopbackHost{
		loop: eventloop.New(),
		quit: make(chan string, 1),
	}
}

// Command records cmd. The quit commands additionally release WaitQuit,
// standing in for the real host's process exit.
func (h *LoopbackHost) Command(cmd string) error {
	h.mu.Lock()
	h.commands = append(h.commands, cmd)
	h.mu.Unlock()

	if cmd == quitCommand || cmd == abortCommand {
		select {
		case h.quit <- cmd:
		default:
		}
	}
	return nil
}

func (h *LoopbackHost) Schedule(fn func()) {
	h.loop.Post(fn)
}

func (h *LoopbackHost) NewWaker(onWake func()) (Waker, error) {
	return asyncWaker{h.loop.NewAsync(onWake)}, nil
}

// WaitQuit blocks until the plugin issues a quit command and returns it.
func (h *LoopbackHost) WaitQuit() string {
	return <-h.quit
}

// Commands returns every host command issued so far.
func (h *LoopbackHost) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.commands...)
}

// Close stops the backing loop.
func (h *LoopbackHost) Close() {
	h.loop.Close()
}

type asyncWaker struct {
	handle *eventloop.AsyncHandle
}

func (w asyncWaker) Wake() error {
	w.handle.Send()
	return nil
}
