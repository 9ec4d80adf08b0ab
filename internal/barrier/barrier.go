// Package barrier implements the Synchronize rendezvous shared between the
// audio worker and its video counterpart at stream start-up.
package barrier

import "time"

// Barrier is a rendezvous point released by the first Release call. Wait
// does not release it; a Wait that times out leaves it unreleased, and
// the ControlMux re-queues the message for another attempt.
type Barrier struct {
	done chan struct{}
}

// New creates a Barrier that Release has not yet fired.
func New() *Barrier {
	return &Barrier{done: make(chan struct{})}
}

// Wait blocks until Release is called or timeout elapses, reporting which
// happened first.
func (b *Barrier) Wait(timeout time.Duration) bool {
	select {
	case <-b.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Release signals every waiter. Safe to call more than once.
func (b *Barrier) Release() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}
