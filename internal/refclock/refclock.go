// Package refclock defines the reference clock external contract the
// sync controller and worker depend on, plus one concrete monotonic
// implementation. The real reference clock (often tied to a display's
// vblank in a video player) is an ambient collaborator supplied by the
// caller — no pack dependency offers an equivalent abstraction, so this
// stays on the standard library's time package rather than reaching for
// an unrelated third-party clock/NTP library.
package refclock

import (
	"sync"
	"time"

	"github.com/vexcore/avsync/media"
)

// Master identifies which player drives the reference clock.
type Master int

// Clock master candidates.
const (
	MasterNone Master = iota
	MasterAudio
	MasterVideo
)

// Clock is the reference-clock external contract.
type Clock interface {
	// GetClock returns the current clock value in ticks, and the
	// absolute (wall-clock-like) time it corresponds to.
	GetClock() (clock int64, absolute int64)
	// Master reports who currently drives the clock.
	Master() Master
	// SetMaxSpeedAdjust advertises the maximum per-second speed
	// adjustment a RESAMPLE-strategy caller may request; 0 disables it.
	SetMaxSpeedAdjust(ticksPerSecond float64)
	// Update proposes a new clock value; returns whether it was
	// accepted (the original only rejects updates smaller than `limit`
	// ticks from the current value, avoiding needless churn).
	Update(clock, absolute int64, limit int64) bool
	// Discontinuity hard-resets the clock to the given value.
	Discontinuity(clock int64)
}

// Monotonic is a Clock backed by time.Now(), suitable for the demo
// command and for tests that don't need a display-driven master clock.
type Monotonic struct {
	mu     sync.Mutex
	master Master
	origin time.Time
	clock  int64
	maxAdj float64
}

// NewMonotonic creates a Monotonic clock starting at tick 0, mastered by
// master.
func NewMonotonic(master Master) *Monotonic {
	return &Monotonic{master: master, origin: time.Now()}
}

func (c *Monotonic) GetClock() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.origin)
	return c.clock + media.FromDuration(elapsed), time.Now().UnixNano()
}

func (c *Monotonic) Master() Master {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.master
}

// SetMaster lets the demo command or tests move clock ownership.
func (c *Monotonic) SetMaster(m Master) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.master = m
}

func (c *Monotonic) SetMaxSpeedAdjust(ticksPerSecond float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAdj = ticksPerSecond
}

func (c *Monotonic) Update(clock, _ int64, limit int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.clock + media.FromDuration(time.Since(c.origin))
	diff := clock - current
	if diff < 0 {
		diff = -diff
	}
	if diff < limit {
		return false
	}
	c.clock = clock
	c.origin = time.Now()
	return true
}

func (c *Monotonic) Discontinuity(clock int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
	c.origin = time.Now()
}

var _ Clock = (*Monotonic)(nil)
