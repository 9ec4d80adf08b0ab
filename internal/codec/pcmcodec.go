package codec

import "github.com/vexcore/avsync/media"

// PCMCodec is a trivial "decoder" for already-PCM (or any fixed-frame-size
// passthrough) input: it slices the byte stream into fixed-size frames
// without any real transform. It stands in for a concrete AAC/AC3/FLAC
// decoder in tests and the demo command, the way
// internal/demux/aac.go's ParseADTS walks a byte slice into discrete
// frames rather than decoding them.
type PCMCodec struct {
	sampleRate      int
	channels        int
	bytesPerSample  int
	framesPerPacket int
	passthrough     bool

	carry []byte
	ready *media.DecodedFrame
}

// NewPCMCodec builds a codec that emits frames of framesPerPacket sample
// frames at a time from interleaved bytesPerSample-wide PCM samples.
func NewPCMCodec(hints media.StreamInfo, bytesPerSample, framesPerPacket int, passthrough bool) *PCMCodec {
	return &PCMCodec{
		sampleRate:      hints.SampleRate,
		channels:        hints.Channels,
		bytesPerSample:  bytesPerSample,
		framesPerPacket: framesPerPacket,
		passthrough:     passthrough,
	}
}

func (c *PCMCodec) frameBytes() int {
	return c.framesPerPacket * c.channels * c.bytesPerSample
}

// Decode appends data to any carried partial frame and, once a full frame
// is available, makes it ready for GetData. It always consumes everything
// offered, buffering the remainder internally (BufferSize reports it).
func (c *PCMCodec) Decode(data []byte) (int, error) {
	c.carry = append(c.carry, data...)

	need := c.frameBytes()
	if need <= 0 || len(c.carry) < need {
		c.ready = &media.DecodedFrame{}
		return len(data), nil
	}

	frameData := make([]byte, need)
	copy(frameData, c.carry[:need])
	c.carry = c.carry[need:]

	c.ready = &media.DecodedFrame{
		Planes:            [][]byte{frameData},
		FrameSize:         need,
		NumFrames:         c.framesPerPacket,
		PTS:               media.NoPTS,
		Duration:          int64(c.framesPerPacket) * media.TimeBase / int64(c.sampleRate),
		EncodedSampleRate: c.sampleRate,
		EncodedChannels:   c.channels,
		Channels:          c.channels,
		Passthrough:       c.passthrough,
	}
	return len(data), nil
}

func (c *PCMCodec) GetData() *media.DecodedFrame {
	if c.ready == nil {
		return &media.DecodedFrame{}
	}
	f := c.ready
	c.ready = &media.DecodedFrame{}
	return f
}

func (c *PCMCodec) Reset() {
	c.carry = nil
	c.ready = nil
}

func (c *PCMCodec) Dispose() {
	c.carry = nil
	c.ready = nil
}

func (c *PCMCodec) BufferSize() int { return len(c.carry) }

func (c *PCMCodec) NeedPassthrough() bool { return c.passthrough }

func (c *PCMCodec) EncodedSampleRate() int { return c.sampleRate }

func (c *PCMCodec) EncodedChannels() int { return c.channels }

var _ Codec = (*PCMCodec)(nil)
