package worker

import (
	"testing"
	"time"

	"github.com/vexcore/avsync/internal/codec"
	"github.com/vexcore/avsync/internal/msgqueue"
	"github.com/vexcore/avsync/internal/refclock"
	"github.com/vexcore/avsync/internal/render"
	"github.com/vexcore/avsync/media"
)

// discoveringCodec stands in for a codec that can't report its real
// sample rate until it has decoded at least one packet: hinted 48000,
// first frame reports 44100.
type discoveringCodec struct {
	decodedOnce bool
	consumed    [][]byte
	disposed    bool
}

func (c *discoveringCodec) Decode(data []byte) (int, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	c.consumed = append(c.consumed, buf)
	c.decodedOnce = true
	return len(data), nil
}

func (c *discoveringCodec) GetData() *media.DecodedFrame {
	if !c.decodedOnce {
		return &media.DecodedFrame{}
	}
	return &media.DecodedFrame{
		Planes:            [][]byte{make([]byte, 4096)},
		FrameSize:         4096,
		NumFrames:         1024,
		PTS:               media.NoPTS,
		Duration:          21333,
		EncodedSampleRate: 44100,
		EncodedChannels:   2,
		Channels:          2,
		Passthrough:       false,
	}
}

func (c *discoveringCodec) Reset()                { c.decodedOnce = false }
func (c *discoveringCodec) Dispose()              { c.disposed = true }
func (c *discoveringCodec) BufferSize() int       { return 0 }
func (c *discoveringCodec) NeedPassthrough() bool { return false }
func (c *discoveringCodec) EncodedSampleRate() int {
	if !c.decodedOnce {
		return 0
	}
	return 44100
}
func (c *discoveringCodec) EncodedChannels() int { return 2 }

var _ codec.Codec = (*discoveringCodec)(nil)

// passthroughCodec is the trial codec SwitchCodecIfNeeded swaps in once it
// discovers the true 44100 sample rate demands passthrough.
type passthroughCodec struct {
	consumed [][]byte
	disposed bool
}

func (c *passthroughCodec) Decode(data []byte) (int, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	c.consumed = append(c.consumed, buf)
	return len(data), nil
}

func (c *passthroughCodec) GetData() *media.DecodedFrame {
	return &media.DecodedFrame{
		Planes:            [][]byte{make([]byte, 4096)},
		FrameSize:         4096,
		NumFrames:         1024,
		PTS:               media.NoPTS,
		Duration:          21333,
		EncodedSampleRate: 44100,
		EncodedChannels:   2,
		Channels:          2,
		Passthrough:       true,
	}
}

func (c *passthroughCodec) Reset()                {}
func (c *passthroughCodec) Dispose()              { c.disposed = true }
func (c *passthroughCodec) BufferSize() int       { return 0 }
func (c *passthroughCodec) NeedPassthrough() bool { return true }
func (c *passthroughCodec) EncodedSampleRate() int { return 44100 }
func (c *passthroughCodec) EncodedChannels() int   { return 2 }

var _ codec.Codec = (*passthroughCodec)(nil)

// Sample-rate discovery on the first decoded frame triggers a codec
// swap, and the same packet bytes are re-decoded by the replacement
// codec before anything is emitted.
func TestSampleRateDiscoveryTriggersPassthroughSwitch(t *testing.T) {
	v1 := &discoveringCodec{}
	v2 := &passthroughCodec{}

	r := render.NewNullRenderer()
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	w := New(Options{
		CodecFactory: func(hints media.StreamInfo) (codec.Codec, error) {
			if hints.SampleRate == 48000 {
				return v1, nil
			}
			return v2, nil
		},
		Renderer: r,
		Clock:    clock,
	})

	ok, err := w.OpenStream(media.StreamInfo{CodecID: "pcm", SampleRate: 48000, Channels: 2})
	if err != nil || !ok {
		t.Fatalf("OpenStream failed: ok=%v err=%v", ok, err)
	}
	defer w.CloseStream(false)

	packet := []byte{9, 8, 7, 6, 5}
	if err := w.queue.Put(&msgqueue.DemuxerPacketMsg{Data: packet}, time.Second); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return r.AddPacketsCalls >= 1 })

	if !v1.disposed {
		t.Fatal("expected the discovering codec to be disposed once switched away from")
	}
	if len(v1.consumed) != 1 || len(v2.consumed) != 1 {
		t.Fatalf("expected exactly one Decode call on each codec, got v1=%d v2=%d", len(v1.consumed), len(v2.consumed))
	}
	if string(v1.consumed[0]) != string(packet) || string(v2.consumed[0]) != string(packet) {
		t.Fatal("expected the same packet bytes redelivered to the replacement codec")
	}
	if !w.telemetry.get().Passthrough {
		t.Fatal("expected the stream to end up in passthrough mode")
	}
}
