package worker

import (
	"fmt"
	"time"

	"github.com/vexcore/avsync/internal/msgqueue"
	"github.com/vexcore/avsync/media"
)

// Flags is the bitmask decodeFrame reports alongside its frame: OK,
// DROP, ERROR, TIMEOUT, or ABORT, combined as needed.
type Flags int

// DecodeFrame result flags.
const (
	FlagOK Flags = 1 << iota
	FlagDrop
	FlagError
	FlagTimeout
	FlagAbort
)

// Has reports whether f includes bit.
func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// decodeFrame pulls one packet's worth of decoded audio, consulting the
// PTS queue for recovered timestamps and the message queue for new
// packets or control messages once the current packet is drained. It
// runs only on the loop goroutine.
func (w *Worker) decodeFrame() (Flags, *media.DecodedFrame) {
	for {
		if !w.pending.Empty() {
			if flags, frame, done := w.decodeFromPending(); done {
				return flags, frame
			}
			continue
		}

		msg, err := w.nextMessage()
		switch err {
		case msgqueue.ErrTimeout:
			return FlagTimeout, nil
		case msgqueue.ErrAborted:
			return FlagAbort, nil
		}

		if dp, ok := msg.(*msgqueue.DemuxerPacketMsg); ok {
			w.pending = media.PendingPacket{Data: dp.Data, Remaining: len(dp.Data), DTS: dp.DTS, Drop: dp.Drop}
			w.pts.Add(int64(len(dp.Data)), dp.DTS)
			continue
		}

		w.handleControl(msg)
	}
}

// decodeFromPending runs one decode step against the packet currently in
// flight. done is false when the codec had no frame ready yet, or when a
// mid-decode codec switch rewound the pointer; either way the caller
// continues with the pending packet or the next message.
func (w *Worker) decodeFromPending() (flags Flags, frame *media.DecodedFrame, done bool) {
	lookback := int64(w.pending.Remaining) + int64(w.codec.BufferSize())
	if pts := w.pts.Get(lookback, true); pts.Valid() {
		v, _ := pts.Get()
		w.audioClock = int64(v)
	}

	checkpoint := w.pending

	consumed, err := w.codec.Decode(w.pending.Data)
	if err != nil {
		w.log.Warn("decode failed", "error", &DecodeError{Field: "codec.Decode", Err: err})
		w.pending.Release()
		w.codec.Reset()
		return FlagError, nil, true
	}
	if consumed < 0 || consumed > len(w.pending.Data) {
		decErr := &DecodeError{
			Field: "codec.Decode",
			Err:   fmt.Errorf("consumed %d bytes of %d available", consumed, len(w.pending.Data)),
		}
		w.log.Warn("decode failed", "error", decErr)
		w.pending.Release()
		w.codec.Reset()
		return FlagError, nil, true
	}

	w.pending.Data = w.pending.Data[consumed:]
	w.pending.Remaining -= consumed

	out := w.codec.GetData()
	if out.IsEmpty() {
		return 0, nil, false
	}

	if !out.PTS.Valid() {
		out.PTS = media.SomePTS(media.PTS(w.audioClock))
	}

	if out.EncodedSampleRate != 0 && out.EncodedSampleRate != w.stream.SampleRate {
		w.stream.SampleRate = out.EncodedSampleRate
		if w.switchCodecIfNeeded() {
			w.pending = checkpoint
			return 0, nil, false
		}
	}

	w.audioClock += out.Duration
	flags = FlagOK
	if w.pending.Drop {
		flags |= FlagDrop
	}
	return flags, out, true
}

// nextMessage blocks on the message queue with a speed-dependent timeout
// and priority gating.
func (w *Worker) nextMessage() (msgqueue.Message, error) {
	w.pending.Release()

	var timeout time.Duration
	if w.speed != media.SpeedNormal {
		timeout = time.Duration(w.renderer.GetCacheTime()*1000+100) * time.Millisecond
	}
	controlOnly := !w.wantsData()
	return w.queue.Get(timeout, controlOnly)
}

// wantsData reports whether the worker should accept new data packets
// right now, or restrict itself to control-only delivery because, once
// started, it is fast-forwarding ahead of the clock or playing at a speed
// between pause and normal.
func (w *Worker) wantsData() bool {
	if !w.started {
		return true
	}
	if w.speed == media.SpeedNormal {
		return true
	}
	if w.speed.IsRewind() {
		return true
	}
	if w.speed > media.SpeedNormal {
		clock, _ := w.clock.GetClock()
		return w.audioClock < clock
	}
	return false
}
