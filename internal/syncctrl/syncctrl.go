// Package syncctrl implements per-frame clock-alignment strategy
// selection and correction: discontinuity correction, skip/duplicate,
// and continuous resample, arbitrated against whatever a shared
// reference clock reports as its current master.
package syncctrl

import (
	"log/slog"

	"github.com/vexcore/avsync/internal/refclock"
	"github.com/vexcore/avsync/internal/render"
	"github.com/vexcore/avsync/media"
)

// minDiscontinuityLimit is the fallback correction granularity (ticks) used
// when no display-driven reference clock is available to supply a vblank
// period.
const minDiscontinuityLimit = media.TimeBase / 100 // 10ms

// minSkipDupLimit is the floor on the skip/duplicate decision window.
const minSkipDupLimit = media.TimeBase / 100 // 10ms

// Config holds the operator-configured preference and speed-adjust ceiling
// a SyncController was built with.
type Config struct {
	Configured      media.SyncType
	MaxSpeedAdjust  float64 // ticks/sec, applied only when the effective strategy is RESAMPLE
	VBlankPeriod    int64   // ticks; 0 means no display reference clock is available
}

// Controller arbitrates sync strategy and applies the resulting per-frame
// correction. It is not safe for concurrent use; the worker owns exactly
// one instance and drives it from its single loop goroutine.
type Controller struct {
	cfg      Config
	clock    refclock.Clock
	renderer render.Renderer
	log      *slog.Logger

	effective  media.SyncType
	skipToggle bool // alternates which call in a SKIPDUP run-below-limit drops the frame
}

// New creates a Controller bound to clock and renderer. log may be nil,
// in which case strategy changes go unlogged.
func New(cfg Config, clock refclock.Clock, renderer render.Renderer, log *slog.Logger) *Controller {
	return &Controller{cfg: cfg, clock: clock, renderer: renderer, log: log, effective: cfg.Configured}
}

// Effective reports the strategy currently in force, set by the most
// recent Select call.
func (c *Controller) Effective() media.SyncType { return c.effective }

// Select recomputes the effective strategy for the next frame, given
// whether the stream is currently in passthrough mode. It must be called
// before Emit for every non-dropped frame.
func (c *Controller) Select(passthrough bool) {
	effective := c.cfg.Configured
	if passthrough && effective == media.SyncResample {
		effective = media.SyncSkipDuplicate
	}

	maxAdjust := 0.0
	if effective == media.SyncResample {
		maxAdjust = c.cfg.MaxSpeedAdjust
	}
	c.clock.SetMaxSpeedAdjust(maxAdjust)

	if c.clock.Master() == refclock.MasterAudio {
		effective = media.SyncDiscontinuity
	}
	if effective == media.SyncDiscontinuity && c.clock.Master() != refclock.MasterAudio {
		effective = media.SyncSkipDuplicate
	}

	if effective != c.effective {
		c.renderer.SetResampleMode(effective == media.SyncResample)
		if c.log != nil {
			c.log.Debug("sync strategy changed", "from", c.effective, "to", effective)
		}
	}
	c.effective = effective
}

// Action is what Emit decided to do with the frame it was given.
type Action int

// Emit outcomes.
const (
	// ActionEmitOnce renders the frame exactly once.
	ActionEmitOnce Action = iota
	// ActionEmitTwice renders the frame twice (SKIPDUP catching up).
	ActionEmitTwice
	// ActionDrop renders nothing (SKIPDUP falling behind).
	ActionDrop
)

// Emit applies the effective strategy's correction for one frame and
// reports what the worker should do with it. The worker must still call
// renderer.AddPackets itself (zero, one, or two times per Action) — this
// package never touches the renderer's data path, only its correction
// knobs.
func (c *Controller) Emit(frame *media.DecodedFrame) Action {
	switch c.effective {
	case media.SyncDiscontinuity:
		c.emitDiscontinuity()
		return ActionEmitOnce
	case media.SyncSkipDuplicate:
		return c.emitSkipDuplicate(frame)
	default: // media.SyncResample
		return ActionEmitOnce
	}
}

func (c *Controller) emitDiscontinuity() {
	limit := c.cfg.VBlankPeriod
	if limit <= 0 {
		limit = minDiscontinuityLimit
	}

	err := c.renderer.GetSyncError()
	rounded := roundTowardZero(err, limit)

	clock, absolute := c.clock.GetClock()
	epsilon := limit / 100
	if epsilon <= 0 {
		epsilon = 1
	}
	if c.clock.Update(clock+rounded, absolute, limit-epsilon) {
		c.renderer.SetSyncErrorCorrection(-rounded)
	}
}

// roundTowardZero rounds err to the nearest multiple of limit, always
// moving toward zero (never overshooting past the true error), matching
// the original's "round the correction down to a whole number of limit
// periods" behavior.
func roundTowardZero(err, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	quotient := err / limit
	return quotient * limit
}

func (c *Controller) emitSkipDuplicate(frame *media.DecodedFrame) Action {
	limit := frame.Duration * 2 / 3
	if limit < minSkipDupLimit {
		limit = minSkipDupLimit
	}

	err := c.renderer.GetSyncError()
	switch {
	case err < -limit:
		// Falling behind the clock. Alternate between letting this frame
		// through and dropping it, so a sustained offset doesn't skip every
		// single frame (which would be audible as a stutter) — a strict
		// 1:1 alternation (emit, drop, emit, drop, ...), matching the
		// original player's m_prevskipped toggle.
		c.skipToggle = !c.skipToggle
		if c.skipToggle {
			return ActionEmitOnce
		}
		c.renderer.SetSyncErrorCorrection(frame.Duration)
		return ActionDrop
	case err > limit:
		c.renderer.SetSyncErrorCorrection(-frame.Duration)
		return ActionEmitTwice
	default:
		return ActionEmitOnce
	}
}
