package msgqueue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAborted is returned by Get and Put once Abort has been called.
var ErrAborted = errors.New("msgqueue: aborted")

// ErrTimeout is returned by Get when no eligible message arrives within
// the requested timeout.
var ErrTimeout = errors.New("msgqueue: timeout")

type item struct {
	msg      Message
	priority Priority
	size     int64 // bytes, accounted for DemuxerPacketMsg only
	duration int64 // ticks, accounted for DemuxerPacketMsg only
}

// Queue is the bounded, priority-aware channel between the upstream
// producer and the worker's control dispatch. It preserves strict FIFO
// order within each priority class while letting a Get(controlOnly) call
// skip past queued data messages to reach a control message the worker
// needs serviced immediately (discontinuity, flush, speed change)
// without discarding the data messages it skipped.
//
// Backpressure applies only to Priority0 (data) messages: Put blocks while
// either accounted total has reached or exceeds its cap, the same two-dimensional cap
// (byte count and estimated playback duration) the original queue used.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	items []item

	bytes    int64
	duration int64
	maxBytes int64
	maxDur   int64

	aborted bool
}

// New creates a Queue with the given capacity caps. A zero cap disables
// that dimension's accounting.
func New(maxBytes int64, maxDuration int64) *Queue {
	q := &Queue{maxBytes: maxBytes, maxDur: maxDuration}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put enqueues m. For DemuxerPacketMsg it blocks while the queue is at
// capacity, unless timeout elapses first (timeout <= 0 means block
// indefinitely, matching the producer's normal blocking push).
func (q *Queue) Put(m Message, timeout time.Duration) error {
	pri := PriorityOf(m)
	size, dur := payloadSize(m)

	q.mu.Lock()
	defer q.mu.Unlock()

	if pri == Priority0 {
		deadline := time.Now().Add(timeout)
		for q.overCapacityLocked() {
			if q.aborted {
				return ErrAborted
			}
			if timeout > 0 {
				remaining := time.Until(deadline)
				if remaining <= 0 {
					return ErrTimeout
				}
				q.waitTimeoutLocked(remaining)
				continue
			}
			q.cond.Wait()
		}
	}
	if q.aborted {
		return ErrAborted
	}

	q.items = append(q.items, item{msg: m, priority: pri, size: size, duration: dur})
	q.bytes += size
	q.duration += dur
	q.cond.Broadcast()
	return nil
}

func (q *Queue) overCapacityLocked() bool {
	if q.maxBytes > 0 && q.bytes >= q.maxBytes {
		return true
	}
	if q.maxDur > 0 && q.duration >= q.maxDur {
		return true
	}
	return false
}

func payloadSize(m Message) (int64, int64) {
	dp, ok := m.(*DemuxerPacketMsg)
	if !ok {
		return 0, 0
	}
	return int64(len(dp.Data)), dp.Duration
}

// Get returns the next eligible message. When controlOnly is false, it
// returns whatever is at the front of the queue regardless of priority
// (normal operation). When controlOnly is true, it scans from the front
// for the first Priority1 message and removes only that one, leaving any
// skipped data messages in place for a later non-control-only Get: this
// is how priority-1 messages preempt data while the worker isn't ready
// for frames.
//
// timeout <= 0 means don't block: try once and return ErrTimeout if
// nothing is eligible yet.
func (q *Queue) Get(timeout time.Duration, controlOnly bool) (Message, error) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.aborted {
			return nil, ErrAborted
		}
		if m, ok := q.popLocked(controlOnly); ok {
			q.cond.Broadcast()
			return m, nil
		}
		if timeout <= 0 {
			return nil, ErrTimeout
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		q.waitTimeoutLocked(remaining)
	}
}

func (q *Queue) popLocked(controlOnly bool) (Message, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	if !controlOnly {
		it := q.items[0]
		q.items = q.items[1:]
		q.bytes -= it.size
		q.duration -= it.duration
		return it.msg, true
	}
	for i, it := range q.items {
		if it.priority != Priority1 {
			continue
		}
		q.items = append(q.items[:i:i], q.items[i+1:]...)
		return it.msg, true
	}
	return nil, false
}

// waitTimeoutLocked blocks on q.cond for at most d, called with q.mu held.
func (q *Queue) waitTimeoutLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	q.cond.Wait()
	timer.Stop()
}

// Abort wakes every blocked Put/Get with ErrAborted and keeps returning it
// thereafter, until Reset is called.
func (q *Queue) Abort() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.aborted = true
	q.cond.Broadcast()
}

// Reset clears the queue and lifts any prior Abort.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.bytes = 0
	q.duration = 0
	q.aborted = false
	q.cond.Broadcast()
}

// Len reports the number of queued messages of either priority.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// WaitEmpty blocks until the queue has no pending messages, ctx is
// cancelled, or Abort is called — the "wait for queue drain" half of
// WaitForBuffers.
func (q *Queue) WaitEmpty(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		case <-stop:
		}
	}()

	for len(q.items) > 0 {
		if q.aborted {
			return ErrAborted
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		q.cond.Wait()
	}
	return nil
}

// DataSize reports accounted bytes and duration currently queued.
func (q *Queue) DataSize() (bytes int64, duration int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.bytes, q.duration
}
