package render

import (
	"sync"

	"github.com/vexcore/avsync/media"
)

// NullRenderer is a test double that accepts any frame, tracks the
// packets it was handed, and reports a caller-controlled sync error. It
// never touches a real audio device.
type NullRenderer struct {
	mu sync.Mutex

	created     bool
	format      *media.DecodedFrame
	paused      bool
	resample    bool
	resampleSet int
	syncError   int64
	cacheTime   float64
	playingPts  media.OptionalPTS

	AddPacketsCalls int
	DrainCalls      int
	FlushCalls      int
	FinishCalls     int
	DestroyCalls    int
	Corrections     []int64
}

// NewNullRenderer creates a renderer double with a zero sync error.
func NewNullRenderer() *NullRenderer {
	return &NullRenderer{}
}

func (r *NullRenderer) IsValidFormat(f *media.DecodedFrame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.created || r.format == nil {
		return false
	}
	return r.format.Channels == f.Channels && r.format.Passthrough == f.Passthrough
}

func (r *NullRenderer) Create(f *media.DecodedFrame, codecID string, useResample bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = true
	r.format = f
	r.resample = useResample
	return true
}

func (r *NullRenderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DestroyCalls++
	r.created = false
	r.format = nil
}

func (r *NullRenderer) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

func (r *NullRenderer) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

func (r *NullRenderer) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DrainCalls++
}

func (r *NullRenderer) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FlushCalls++
	r.cacheTime = 0
}

func (r *NullRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishCalls++
}

func (r *NullRenderer) AddPackets(f *media.DecodedFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AddPacketsCalls++
	r.playingPts = f.PTS
	r.cacheTime += float64(f.Duration) / float64(media.TimeBase)
}

func (r *NullRenderer) GetCacheTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cacheTime
}

func (r *NullRenderer) GetPlayingPts() media.OptionalPTS {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playingPts
}

func (r *NullRenderer) GetResampleRatio() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resample {
		return 1.0
	}
	return 1.0
}

// SetSyncError lets tests drive the measured offset the SyncController
// will read back via GetSyncError.
func (r *NullRenderer) SetSyncError(ticks int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncError = ticks
}

func (r *NullRenderer) GetSyncError() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncError
}

func (r *NullRenderer) SetSyncErrorCorrection(delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Corrections = append(r.Corrections, delta)
}

func (r *NullRenderer) SetResampleMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resample = on
	r.resampleSet++
}

var _ Renderer = (*NullRenderer)(nil)
