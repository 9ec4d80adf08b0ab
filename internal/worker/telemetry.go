package worker

import (
	"fmt"
	"sync"

	"github.com/vexcore/avsync/media"
)

// Snapshot is the telemetry view a UI or debug endpoint can poll: queue
// fill, bitrate, resample ratio, passthrough, and the timestamp currently
// audible. Guarded by a short critical section — single producer (the
// worker), multiple readers.
type Snapshot struct {
	QueueLevelPercent int // raw queue-fill percentage, pre-heuristic
	CacheTimeSeconds  float64
	BitrateKbps       float64
	ResampleRatio     float64
	Passthrough       bool
	Channels          int
	PlayingPts        media.OptionalPTS
	Started           bool
	Stalled           bool
}

// telemetry is the worker's mutable snapshot holder.
type telemetry struct {
	mu   sync.Mutex
	snap Snapshot
}

func (t *telemetry) update(fn func(*Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.snap)
}

func (t *telemetry) get() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// queueLevelHeuristic folds queued-byte percentage and buffered cache time
// into a single "aq" figure for GetPlayerInfo. Carried verbatim from the
// original player's UpdatePlayerInfo (`GetLevel() + 100/8 * cache_time`,
// clamped to 99): it is a UI hint, not a meaningful percentage, and is
// kept exactly as the source computed it rather than redesigned.
func queueLevelHeuristic(queueLevelPercent int, cacheTimeSeconds float64) int {
	aq := queueLevelPercent + int(100.0/8.0*cacheTimeSeconds)
	if aq > 99 {
		aq = 99
	}
	return aq
}

// GetPlayerInfo formats the field set the original player exposed, minus
// attenuation (audio-effect processing is out of scope for this core):
// "aq:NN%, Kb/s:X.XX, rr:X.XXXXX".
func (w *Worker) GetPlayerInfo() string {
	s := w.telemetry.get()
	aq := queueLevelHeuristic(s.QueueLevelPercent, s.CacheTimeSeconds)
	return fmt.Sprintf("aq:%d%%, Kb/s:%.2f, rr:%.5f", aq, s.BitrateKbps, s.ResampleRatio)
}

// GetAudioBitrate reports the most recently observed bitrate in bits/sec.
func (w *Worker) GetAudioBitrate() int {
	s := w.telemetry.get()
	return int(s.BitrateKbps * 1000)
}

// GetAudioChannels reports the channel count of the currently open stream.
func (w *Worker) GetAudioChannels() int {
	s := w.telemetry.get()
	return s.Channels
}

// IsPassthrough reports whether the renderer is currently receiving
// encoded (not PCM) audio.
func (w *Worker) IsPassthrough() bool {
	s := w.telemetry.get()
	return s.Passthrough
}
