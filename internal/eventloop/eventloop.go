// Package eventloop is a minimal single-goroutine cooperative loop in the
// shape of the host process's own loop. All posted callbacks run
// serialized on the loop goroutine, in FIFO order. An AsyncHandle is the
// one legal way to signal the loop from another goroutine.
package eventloop

import (
	"sync"
	"sync/atomic"
)

type Loop struct {
	work    chan func()
	done    chan struct{}
	closing sync.Once
}

func New() *Loop {
	l := &Loop{
		work: make(chan func(), 128),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for fn := range l.work {
		fn()
	}
}

// Post schedules fn on the loop goroutine. Panics if the loop is closed.
func (l *Loop) Post(fn func()) {
	l.work <- fn
}

// Close stops the loop after draining already-posted callbacks and waits
// for the loop goroutine to finish.
func (l *Loop) Close() {
	l.closing.Do(func() { close(l.work) })
	<-l.done
}

// AsyncHandle wakes the loop from any goroutine. Sends are coalesced: a
// Send while a wake is already pending does not schedule the callback a
// second time. Each delivered wake invokes the callback exactly once, on
// the loop goroutine.
type AsyncHandle struct {
	loop    *Loop
	cb      func()
	pending atomic.Bool
}

func (l *Loop) NewAsync(cb func()) *AsyncHandle {
	return &AsyncHandle{loop: l, cb: cb}
}

// Send signals the handle. Safe to call from any goroutine.
func (h *AsyncHandle) Send() {
	if !h.pending.CompareAndSwap(false, true) {
		return
	}
	h.loop.Post(func() {
		h.pending.Store(false)
		h.cb()
	})
}
