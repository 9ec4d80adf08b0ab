// Package media defines the core data types that flow through the audio
// player pipeline: stream hints, decoded PCM/passthrough frames, and the
// compressed packet currently being drained into the codec.
package media

import (
	"fmt"
	"time"
)

// TimeBase is the tick rate PTS/DTS/duration values are expressed in,
// (90 kHz). Frame durations at rates that do not divide it evenly (e.g.
// 1024 frames at 44.1 kHz) are not whole tick counts and are truncated by
// integer division where they are computed.
const TimeBase = 90000

// ToDuration converts a tick count to a time.Duration.
func ToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * time.Second / TimeBase
}

// FromDuration converts a time.Duration to a tick count.
func FromDuration(d time.Duration) int64 {
	return int64(d) * TimeBase / int64(time.Second)
}

// PTS is a presentation/decode timestamp in TimeBase ticks. The zero value
// is NOT "no timestamp" — use NoPTS/OptionalPTS so a missing timestamp can
// never be silently mistaken for tick zero in arithmetic.
type PTS int64

// OptionalPTS models a presentation timestamp that may be absent, replacing
// the sentinel-value idiom (pts == DVD_NOPTS_VALUE) with an explicit
// nullable so a missing timestamp can't leak into arithmetic unnoticed.
type OptionalPTS struct {
	value PTS
	ok    bool
}

// NoPTS is the absent OptionalPTS, equivalent to DVD_NOPTS_VALUE.
var NoPTS = OptionalPTS{}

// SomePTS wraps a known timestamp.
func SomePTS(v PTS) OptionalPTS { return OptionalPTS{value: v, ok: true} }

// Valid reports whether a timestamp is present.
func (p OptionalPTS) Valid() bool { return p.ok }

// Get returns the wrapped timestamp and whether it was present, mirroring
// the comma-ok idiom used throughout the standard library.
func (p OptionalPTS) Get() (PTS, bool) { return p.value, p.ok }

// Or returns the wrapped timestamp, or fallback if absent.
func (p OptionalPTS) Or(fallback PTS) PTS {
	if p.ok {
		return p.value
	}
	return fallback
}

func (p OptionalPTS) String() string {
	if !p.ok {
		return "NO_PTS"
	}
	return fmt.Sprintf("%d", p.value)
}

// Speed is an integer playback rate, scaled so that SpeedNormal represents
// 1x. Values below SpeedPause are rewind; values above SpeedNormal are
// fast-forward.
type Speed int

// Named speed thresholds, matching DVD_PLAYSPEED_* in the original player.
const (
	SpeedPause  Speed = 0
	SpeedNormal Speed = 1000
)

// IsRewind reports whether this speed plays the stream backwards.
func (s Speed) IsRewind() bool { return s < SpeedPause }

// SyncType selects the clock-alignment strategy a SyncController applies.
type SyncType int

// Supported synchronization strategies.
const (
	SyncDiscontinuity SyncType = iota
	SyncSkipDuplicate
	SyncResample
)

func (s SyncType) String() string {
	switch s {
	case SyncDiscontinuity:
		return "discontinuity"
	case SyncSkipDuplicate:
		return "skip/duplicate"
	case SyncResample:
		return "resample"
	default:
		return "unknown"
	}
}

// StreamInfo describes the codec and format hints for the stream currently
// open on the worker. It is mutated only by OpenStream and by the decode
// step when the codec reports a newly discovered encoded sample rate.
type StreamInfo struct {
	CodecID    string
	Channels   int
	SampleRate int

	// Extra carries codec-specific initialization hints (e.g. AAC config,
	// WAVEFORMATEX-style extra data) opaque to the worker.
	Extra []byte
}

// DecodedFrame is a batch of PCM (or passthrough-encoded) samples produced
// by the codec for a single decode call. The core never copies the sample
// data; ownership passes from codec to renderer.
type DecodedFrame struct {
	// Planes holds one []byte per audio plane (1 for interleaved/passthrough
	// data, Channels for planar PCM).
	Planes [][]byte
	// FrameSize is the number of bytes per plane.
	FrameSize int
	// NumFrames is the sample-frame count (not byte count) carried by this batch.
	NumFrames int

	PTS      OptionalPTS
	Duration int64 // ticks, TimeBase

	EncodedSampleRate  int
	EncodedChannels    int
	Channels           int
	Passthrough        bool
}

// IsEmpty reports whether this batch carries no sample frames, the signal
// DecodeStep uses to keep draining the codec without emitting anything.
func (f *DecodedFrame) IsEmpty() bool { return f == nil || f.NumFrames == 0 }

// BytesPerPlane returns the number of live bytes in a single plane.
func (f *DecodedFrame) BytesPerPlane() int { return f.FrameSize }

// PendingPacket is the compressed packet currently being drained into the
// codec. While Remaining > 0 the worker must not block on a new packet.
type PendingPacket struct {
	Data      []byte
	Remaining int
	DTS       OptionalPTS
	Drop      bool
}

// Release clears the packet, marking it fully consumed.
func (p *PendingPacket) Release() {
	p.Data = nil
	p.Remaining = 0
	p.DTS = NoPTS
	p.Drop = false
}

// Empty reports whether there is no pending data to decode.
func (p *PendingPacket) Empty() bool { return p == nil || p.Remaining <= 0 }
