// Package codec defines the external contract DecodeStep relies on for
// decoding compressed audio packets into PCM (or passthrough) frames. The
// concrete codec implementations (AAC, AC3, FLAC, ...) are out of scope
// for this core; this package carries the contract plus one concrete
// passthrough codec used by tests and the demo command.
package codec

import "github.com/vexcore/avsync/media"

// Codec is the interface the worker depends on. A production build
// obtains one from a codec factory keyed on StreamInfo.CodecID; the
// factory itself lives outside this core.
type Codec interface {
	// Decode consumes up to len(data) bytes, returning the number of bytes
	// actually consumed, or a negative value on error. A single call may
	// consume more bytes than it has frames to show for; GetData drains
	// whatever the codec has ready.
	Decode(data []byte) (consumed int, err error)

	// GetData returns the most recently decoded frame, or a frame with
	// NumFrames == 0 if the codec needs more input before it can emit one.
	GetData() *media.DecodedFrame

	// Reset discards any buffered state, e.g. after a seek or a dropped
	// packet following a decode error.
	Reset()

	// Dispose releases codec resources. The codec must not be used again.
	Dispose()

	// BufferSize is the number of bytes the codec may hold internally
	// before reflecting them in Decode's return value; DecodeStep folds
	// this into the PtsInputQueue lookback distance.
	BufferSize() int

	// NeedPassthrough reports whether this codec emits encoded (not PCM)
	// audio for the downstream renderer to pass through unchanged.
	NeedPassthrough() bool

	// EncodedSampleRate and EncodedChannels report the codec's
	// self-reported format, which may differ from the hints OpenStream
	// was given (e.g. discovered only after decoding the first frame).
	// A zero value means "not yet known".
	EncodedSampleRate() int
	EncodedChannels() int
}

// Factory constructs a Codec for the given stream hints, returning nil if
// the codec is unsupported.
type Factory func(hints media.StreamInfo) (Codec, error)
