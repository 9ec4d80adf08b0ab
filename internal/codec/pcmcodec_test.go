package codec

import (
	"testing"

	"github.com/vexcore/avsync/media"
)

func TestPCMCodecEmitsOnceFrameIsComplete(t *testing.T) {
	t.Parallel()

	hints := media.StreamInfo{SampleRate: 48000, Channels: 2}
	c := NewPCMCodec(hints, 2, 4, false) // 4 frames * 2 ch * 2 bytes = 16 bytes/frame

	consumed, err := c.Decode(make([]byte, 10))
	if err != nil || consumed != 10 {
		t.Fatalf("Decode(10 bytes): got (%d, %v)", consumed, err)
	}
	if f := c.GetData(); !f.IsEmpty() {
		t.Fatalf("GetData after partial frame: got non-empty frame")
	}
	if got := c.BufferSize(); got != 10 {
		t.Fatalf("BufferSize: got %d, want 10", got)
	}

	consumed, err = c.Decode(make([]byte, 10))
	if err != nil || consumed != 10 {
		t.Fatalf("Decode(10 more bytes): got (%d, %v)", consumed, err)
	}
	f := c.GetData()
	if f.IsEmpty() {
		t.Fatalf("GetData after completing a 16-byte frame: got empty")
	}
	if f.NumFrames != 4 {
		t.Errorf("NumFrames: got %d, want 4", f.NumFrames)
	}
	if got := c.BufferSize(); got != 4 {
		t.Errorf("BufferSize after emitting: got %d, want 4 (leftover)", got)
	}
}

func TestPCMCodecResetDiscardsCarry(t *testing.T) {
	t.Parallel()

	hints := media.StreamInfo{SampleRate: 48000, Channels: 1}
	c := NewPCMCodec(hints, 2, 4, false)
	c.Decode(make([]byte, 5))
	c.Reset()
	if got := c.BufferSize(); got != 0 {
		t.Errorf("BufferSize after Reset: got %d, want 0", got)
	}
}
