package eventloop_test

import (
	"sync"
	"testing"

	"github.com/plugforge/harness/internal/eventloop"
	"github.com/stretchr/testify/require"
)

func TestPostRunsInOrder(t *testing.T) {
	loop := eventloop.New()

	var got []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 1; i <= 3; i++ {
		i := i
		loop.Post(func() {
			got = append(got, i)
			wg.Done()
		})
	}
	wg.Wait()
	loop.Close()

	require.Equal(t, []int{1, 2, 3}, got)
}

func TestCallbacksRunOnOneGoroutine(t *testing.T) {
	loop := eventloop.New()

	const n = 50
	counter := 0
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go loop.Post(func() {
			// no lock: the loop serializes callbacks
			counter++
			wg.Done()
		})
	}
	wg.Wait()
	loop.Close()

	require.Equal(t, n, counter)
}

func TestAsyncSendInvokesCallback(t *testing.T) {
	loop := eventloop.New()
	defer loop.Close()

	fired := make(chan struct{})
	handle := loop.NewAsync(func() { fired <- struct{}{} })

	go handle.Send()
	<-fired
}

func TestAsyncSendsCoalesce(t *testing.T) {
	loop := eventloop.New()

	release := make(chan struct{})
	calls := 0
	handle := loop.NewAsync(func() {
		calls++
	})

	// block the loop so both sends happen while the wake is pending
	loop.Post(func() { <-release })
	handle.Send()
	handle.Send()
	close(release)
	loop.Close()

	require.Equal(t, 1, calls)
}
