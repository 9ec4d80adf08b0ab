// Package msgqueue implements the worker's message-driven input: a
// closed sum of message variants dispatched through an exhaustive type
// switch rather than an untyped-cast idiom, delivered through a
// priority-aware, backpressure-bounded queue shared between the
// upstream producer and the worker.
package msgqueue

import (
	"time"

	"github.com/vexcore/avsync/internal/barrier"
	"github.com/vexcore/avsync/internal/codec"
	"github.com/vexcore/avsync/media"
)

// Message is the closed sum of everything the worker's ControlMux can
// receive. Every variant below is the only implementations of this
// interface; dispatch is a type switch, never an untyped cast.
type Message interface {
	isMessage()
}

// Priority is the queue-service class a message belongs to. Data packets
// are Priority0 ("accept data and control"), as is CodecChangeMsg; every
// other control message is Priority1 and can be serviced ahead of queued
// data when the worker requests control-only delivery.
type Priority int

// Queue priority classes.
const (
	Priority0 Priority = iota
	Priority1
)

// PriorityOf returns the intrinsic priority of a message variant.
//
// CodecChangeMsg shares Priority0 with data packets: it must take effect
// in order relative to the packets already queued ahead of it, not jump
// ahead of them the way an urgent control message (Flush, Resync) does.
func PriorityOf(m Message) Priority {
	switch m.(type) {
	case *DemuxerPacketMsg, *CodecChangeMsg:
		return Priority0
	default:
		return Priority1
	}
}

// DemuxerPacketMsg carries one compressed packet from the upstream
// producer, along with its DTS and an optional "drop" hint (the demuxer
// asking the worker to decode but not present the resulting audio).
type DemuxerPacketMsg struct {
	Data     []byte
	DTS      media.OptionalPTS
	Drop     bool
	Duration int64 // ticks, 0 if unknown; used only for queue time-capacity accounting
}

func (*DemuxerPacketMsg) isMessage() {}

// SynchronizeMsg asks the worker to rendezvous with its video counterpart
// before proceeding.
type SynchronizeMsg struct {
	Barrier *barrier.Barrier
}

func (*SynchronizeMsg) isMessage() {}

// ResyncMsg overwrites the worker's running audio clock.
type ResyncMsg struct {
	Timestamp media.OptionalPTS
	SetClock  bool
}

func (*ResyncMsg) isMessage() {}

// ResetMsg asks the worker to reset its codec and drop any pending packet.
type ResetMsg struct{}

func (*ResetMsg) isMessage() {}

// FlushMsg asks the worker to discard all buffered and in-flight audio.
type FlushMsg struct{}

func (*FlushMsg) isMessage() {}

// PlayerStartedMsg asks the worker to report whether it has already
// started, for parent bookkeeping.
type PlayerStartedMsg struct{}

func (*PlayerStartedMsg) isMessage() {}

// TimeSource selects how DisplayTimeMsg computes its response.
type TimeSource int

// Display-time sourcing modes.
const (
	TimeSourceClock TimeSource = iota
	TimeSourceAbsolute
)

// DisplayTimeState is the player-state payload carried by a DisplayTimeMsg,
// filled in by the worker and forwarded to the parent.
type DisplayTimeState struct {
	TimeSource TimeSource
	TimeOffset int64 // ticks, added when TimeSource == TimeSourceClock
	Timestamp  int64 // set by the worker when TimeSource == TimeSourceAbsolute
	Time       int64 // milliseconds, set by the worker when TimeSource == TimeSourceClock
	Player     string
}

// DisplayTimeMsg is a display-time query forwarded to the worker for
// timestamping before being relayed back to the parent.
type DisplayTimeMsg struct {
	State *DisplayTimeState
}

func (*DisplayTimeMsg) isMessage() {}

// EOFMsg signals no more packets are coming; cached audio should still
// play out.
type EOFMsg struct{}

func (*EOFMsg) isMessage() {}

// DelayMsg asks the worker to hold off for roughly Duration before
// continuing, scaled by playback speed.
type DelayMsg struct {
	Duration time.Duration
}

func (*DelayMsg) isMessage() {}

// SetSpeedMsg changes the playback speed.
type SetSpeedMsg struct {
	Speed media.Speed
}

func (*SetSpeedMsg) isMessage() {}

// SilenceMsg toggles whether decoded frames are zeroed before rendering.
type SilenceMsg struct {
	On bool
}

func (*SilenceMsg) isMessage() {}

// CodecChangeMsg carries a fully-owned replacement codec and the stream
// hints that go with it.
type CodecChangeMsg struct {
	Hints media.StreamInfo
	Codec codec.Codec
}

func (*CodecChangeMsg) isMessage() {}
