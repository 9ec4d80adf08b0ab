package syncctrl

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vexcore/avsync/internal/refclock"
	"github.com/vexcore/avsync/internal/render"
	"github.com/vexcore/avsync/media"
)

func ticksMs(ms int64) int64 {
	return media.TimeBase * ms / 1000
}

func TestSelectPassthroughDemotesResampleToSkipDuplicate(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncResample, MaxSpeedAdjust: 1000}, clock, r, nil)

	c.Select(true)
	if c.Effective() != media.SyncSkipDuplicate {
		t.Fatalf("expected SKIPDUP under passthrough, got %v", c.Effective())
	}
}

func TestSelectAudioMasterForcesDiscontinuity(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterAudio)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncSkipDuplicate}, clock, r, nil)

	c.Select(false)
	if c.Effective() != media.SyncDiscontinuity {
		t.Fatalf("expected DISCON when audio masters the clock, got %v", c.Effective())
	}
}

func TestSelectDisconWithoutAudioMasterFallsBackToSkipDuplicate(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncDiscontinuity}, clock, r, nil)

	c.Select(false)
	if c.Effective() != media.SyncSkipDuplicate {
		t.Fatalf("expected SKIPDUP fallback, got %v", c.Effective())
	}
}

// A 23ms drift under DISCON with a 10ms limit rounds toward zero in
// multiples of the limit, and only accepts/corrects
// when the rounded value clears the clock's acceptance threshold.
func TestDiscontinuityCorrectsInLimitMultiples(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterAudio)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncDiscontinuity, VBlankPeriod: 0}, clock, r, nil)
	c.Select(false)

	r.SetSyncError(ticksMs(23))

	c.Emit(&media.DecodedFrame{Duration: ticksMs(23)})

	if len(r.Corrections) != 1 {
		t.Fatalf("expected exactly one correction, got %d", len(r.Corrections))
	}
	want := -(ticksMs(23) / minDiscontinuityLimit) * minDiscontinuityLimit
	if r.Corrections[0] != want {
		t.Fatalf("correction = %d, want %d", r.Corrections[0], want)
	}
}

// SKIPDUP with a 23ms frame duration derives a limit of 2/3 of that
// (>10ms floor), and a sustained large positive error
// duplicates rather than drops.
func TestSkipDuplicateEmitsTwiceWhenAheadBeyondLimit(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncSkipDuplicate}, clock, r, nil)
	c.Select(false)

	frame := &media.DecodedFrame{Duration: ticksMs(23)}
	r.SetSyncError(ticksMs(30))

	action := c.Emit(frame)
	if action != ActionEmitTwice {
		t.Fatalf("expected ActionEmitTwice, got %v", action)
	}
	if len(r.Corrections) != 1 || r.Corrections[0] != -frame.Duration {
		t.Fatalf("expected one -duration correction, got %v", r.Corrections)
	}
}

func TestSkipDuplicateTogglesWhenBehindBeyondLimit(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncSkipDuplicate}, clock, r, nil)
	c.Select(false)

	frame := &media.DecodedFrame{Duration: ticksMs(23)}
	r.SetSyncError(-ticksMs(30))

	// The original player's m_prevskipped toggle starts false and flips
	// true on the first qualifying call, so the first call lets the frame
	// through and only the second call drops it.
	first := c.Emit(frame)
	second := c.Emit(frame)
	if first != ActionEmitOnce {
		t.Fatalf("expected first call to emit, got %v", first)
	}
	if second != ActionDrop {
		t.Fatalf("expected second call to drop, got %v", second)
	}
}

func TestSkipDuplicateEmitsOnceWithinLimit(t *testing.T) {
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	r := render.NewNullRenderer()
	c := New(Config{Configured: media.SyncSkipDuplicate}, clock, r, nil)
	c.Select(false)

	frame := &media.DecodedFrame{Duration: ticksMs(23)}
	r.SetSyncError(ticksMs(2))

	if action := c.Emit(frame); action != ActionEmitOnce {
		t.Fatalf("expected ActionEmitOnce, got %v", action)
	}
	if len(r.Corrections) != 0 {
		t.Fatalf("expected no correction within limit, got %v", r.Corrections)
	}
}

// Round-trip law: under SKIPDUP, while err stays within [-limit, +limit]
// no correction is applied, so the total emitted frames (each
// ActionEmitOnce contributing 1, ActionEmitTwice 2, ActionDrop 0) equals
// the input frame count exactly. err is drawn from [-5ms, +5ms], inside
// the 10ms floor of the limit.
func TestSkipDuplicateRoundTripFrameBalance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		clock := refclock.NewMonotonic(refclock.MasterVideo)
		r := render.NewNullRenderer()
		c := New(Config{Configured: media.SyncSkipDuplicate}, clock, r, nil)
		c.Select(false)

		n := rapid.IntRange(1, 50).Draw(rt, "n")
		frame := &media.DecodedFrame{Duration: ticksMs(23)}

		emitted := 0
		input := 0
		for i := 0; i < n; i++ {
			// err oscillates within the limit: never forces a correction.
			errTicks := rapid.Int64Range(-ticksMs(5), ticksMs(5)).Draw(rt, "err")
			r.SetSyncError(errTicks)
			input++
			switch c.Emit(frame) {
			case ActionEmitOnce:
				emitted++
			case ActionEmitTwice:
				emitted += 2
			case ActionDrop:
			}
		}
		if emitted != input {
			rt.Fatalf("emitted %d frames for %d inputs while err stayed within limit", emitted, input)
		}
	})
}
