package barrier

import (
	"testing"
	"time"
)

func TestWaitReturnsTrueAfterRelease(t *testing.T) {
	b := New()
	go func() {
		time.Sleep(5 * time.Millisecond)
		b.Release()
	}()
	if !b.Wait(time.Second) {
		t.Fatal("expected Wait to return true once Release fires")
	}
}

func TestWaitTimesOutWithoutRelease(t *testing.T) {
	b := New()
	if b.Wait(10 * time.Millisecond) {
		t.Fatal("expected Wait to time out when Release never fires")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	b := New()
	b.Release()
	b.Release()
	if !b.Wait(time.Second) {
		t.Fatal("expected a double Release to still leave Wait satisfied")
	}
}
