// Package ptsqueue associates compressed-byte spans with presentation
// timestamps so a decoder can recover "which input packet began the frame
// I just emitted?" after an arbitrary number of bytes have passed through
// codec-internal buffering.
package ptsqueue

import (
	"sync"

	"github.com/vexcore/avsync/media"
)

// entry pairs a byte span with the PTS it was enqueued with.
type entry struct {
	bytes int64
	pts   media.OptionalPTS
}

// Queue is an ordered sequence of (bytes, pts) entries, newest at the
// front. It is internally synchronized because the demuxer/producer adds
// entries from its own goroutine while the worker consumes them.
//
// Invariant: the sum of bytes over all entries equals the total bytes
// added minus the total bytes definitively consumed.
type Queue struct {
	mu      sync.Mutex
	entries []entry // entries[0] is newest
}

// New creates an empty PtsInputQueue.
func New() *Queue {
	return &Queue{}
}

// Add prepends a new (bytes, pts) span. No coalescing is performed, even
// if the new span's PTS matches the current front entry.
func (q *Queue) Add(bytes int64, pts media.OptionalPTS) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]entry{{bytes: bytes, pts: pts}}, q.entries...)
}

// Flush discards every entry.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}

// Get walks from newest to oldest and returns the PTS of the first entry
// whose cumulative byte span is at least n. If consume is true, that
// entry's PTS is marked NO_PTS and every older entry (data already fully
// consumed) is discarded. If the walk exhausts without satisfying n, it
// returns NoPTS.
func (q *Queue) Get(n int64, consume bool) media.OptionalPTS {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if n <= q.entries[i].bytes {
			pts := q.entries[i].pts
			if consume {
				q.entries[i].pts = media.NoPTS
				q.entries = q.entries[:i+1]
			}
			return pts
		}
		n -= q.entries[i].bytes
	}
	return media.NoPTS
}

// Len returns the number of buffered entries, for diagnostics and tests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
