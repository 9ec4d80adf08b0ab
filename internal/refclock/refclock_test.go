package refclock

import (
	"testing"
	"time"
)

func TestMonotonicAdvancesFromOrigin(t *testing.T) {
	c := NewMonotonic(MasterAudio)
	c1, _ := c.GetClock()
	time.Sleep(5 * time.Millisecond)
	c2, _ := c.GetClock()
	if c2 <= c1 {
		t.Fatalf("expected clock to advance, got %d then %d", c1, c2)
	}
}

func TestUpdateRejectsSmallDeltas(t *testing.T) {
	c := NewMonotonic(MasterAudio)
	current, _ := c.GetClock()
	if c.Update(current+5, 0, 100) {
		t.Fatal("expected update within limit to be rejected")
	}
}

func TestUpdateAcceptsLargeDeltas(t *testing.T) {
	c := NewMonotonic(MasterAudio)
	current, _ := c.GetClock()
	if !c.Update(current+1000, 0, 100) {
		t.Fatal("expected update beyond limit to be accepted")
	}
	got, _ := c.GetClock()
	if got < current+1000 {
		t.Fatalf("expected clock to jump to new value, got %d", got)
	}
}

func TestDiscontinuityAlwaysResets(t *testing.T) {
	c := NewMonotonic(MasterVideo)
	c.Discontinuity(42)
	got, _ := c.GetClock()
	if got < 42 {
		t.Fatalf("expected clock reset to 42, got %d", got)
	}
}

func TestSetMasterChangesReportedMaster(t *testing.T) {
	c := NewMonotonic(MasterNone)
	c.SetMaster(MasterAudio)
	if c.Master() != MasterAudio {
		t.Fatalf("expected master=Audio, got %v", c.Master())
	}
}
