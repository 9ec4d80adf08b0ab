package render

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/vexcore/avsync/media"
)

// ringBuffer is a thread-safe byte FIFO that the oto playback goroutine
// reads from and AddPackets writes into. Reads that find no data return
// silence rather than blocking, so a stalled producer never wedges oto's
// internal pump goroutine — the worker's own stall detection is what
// notices and reacts.
type ringBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (r *ringBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, p...)
	return len(p), nil
}

func (r *ringBuffer) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	if n < len(p) {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		n = len(p)
	}
	return n, nil
}

func (r *ringBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

func (r *ringBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = nil
}

// bytesPerSample is fixed at 16-bit signed little-endian, matching the
// format e1z0-QAnotherRTSP initializes its Oto context with.
const bytesPerSample = 2

// OtoRenderer implements Renderer on top of github.com/hajimehoshi/oto/v2,
// pushing PCM into a ring buffer that backs the player's io.Reader side —
// the same singleton-context-with-ready-channel shape as
// e1z0-QAnotherRTSP/src/audio.go's InitGlobalAudio, generalized from a
// package-level global to a per-renderer instance so multiple Worker
// instances in a process don't share device state.
type OtoRenderer struct {
	ctx context.Context
	log *slog.Logger

	mu          sync.Mutex
	otoCtx      *oto.Context
	player      *oto.Player
	ring        *ringBuffer
	sampleRate  int
	channels    int
	passthrough bool

	resample      bool
	syncErrorTick int64
	playingPts    media.OptionalPTS
	bytesWritten  int64
}

// NewOtoRenderer creates a renderer bound to ctx: blocking calls (Drain)
// observe ctx.Done() instead of a shared stop flag, the explicit
// cancellation token design.md calls for in place of the original's
// `(bool&)m_bStop` alias.
func NewOtoRenderer(ctx context.Context, log *slog.Logger) *OtoRenderer {
	if log == nil {
		log = slog.Default()
	}
	return &OtoRenderer{ctx: ctx, log: log.With("component", "oto-renderer")}
}

func (r *OtoRenderer) IsValidFormat(f *media.DecodedFrame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.otoCtx != nil && r.sampleRate == f.EncodedSampleRate && r.channels == f.Channels && r.passthrough == f.Passthrough
}

func (r *OtoRenderer) Create(f *media.DecodedFrame, codecID string, useResample bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyLocked()

	sampleRate := f.EncodedSampleRate
	if sampleRate == 0 {
		sampleRate = 48000
	}
	channels := f.Channels
	if channels == 0 {
		channels = 2
	}

	ctx, ready, err := oto.NewContext(sampleRate, channels, oto.FormatSignedInt16LE)
	if err != nil {
		r.log.Error("failed to create oto context", "error", err, "sampleRate", sampleRate, "channels", channels)
		return false
	}
	go func() {
		<-ready
	}()

	r.otoCtx = ctx
	r.sampleRate = sampleRate
	r.channels = channels
	r.passthrough = f.Passthrough
	r.resample = useResample
	r.ring = &ringBuffer{}
	r.player = ctx.NewPlayer(r.ring)
	r.player.Play()

	r.log.Info("renderer created", "codec", codecID, "sampleRate", sampleRate, "channels", channels, "resample", useResample)
	return true
}

func (r *OtoRenderer) destroyLocked() {
	if r.player != nil {
		r.player.Close()
		r.player = nil
	}
	r.otoCtx = nil
	r.ring = nil
}

func (r *OtoRenderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyLocked()
}

func (r *OtoRenderer) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.player != nil {
		r.player.Pause()
	}
}

func (r *OtoRenderer) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.player != nil {
		r.player.Play()
	}
}

// Drain blocks until the ring buffer empties or ctx is cancelled, the
// cancellation boundary every blocking renderer call must observe.
func (r *OtoRenderer) Drain() {
	for {
		r.mu.Lock()
		ring := r.ring
		r.mu.Unlock()
		if ring == nil || ring.Len() == 0 {
			return
		}
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (r *OtoRenderer) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ring != nil {
		r.ring.Clear()
	}
	r.bytesWritten = 0
}

func (r *OtoRenderer) Finish() {
	// Cached audio should still play out; nothing to push, the ring buffer
	// already drains naturally via Read's silence fallback.
}

func (r *OtoRenderer) AddPackets(f *media.DecodedFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ring == nil || len(f.Planes) == 0 {
		return
	}
	r.ring.Write(f.Planes[0])
	r.bytesWritten += int64(len(f.Planes[0]))
	r.playingPts = f.PTS
}

func (r *OtoRenderer) GetCacheTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ring == nil || r.sampleRate == 0 || r.channels == 0 {
		return 0
	}
	bytesPerSec := r.sampleRate * r.channels * bytesPerSample
	return float64(r.ring.Len()) / float64(bytesPerSec)
}

func (r *OtoRenderer) GetPlayingPts() media.OptionalPTS {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playingPts
}

func (r *OtoRenderer) GetResampleRatio() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resample {
		return 1.0
	}
	return 1.0
}

// GetSyncError does not measure drift against a reference clock: it
// returns the running sum of the deltas passed to SetSyncErrorCorrection,
// starting from zero.
func (r *OtoRenderer) GetSyncError() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncErrorTick
}

func (r *OtoRenderer) SetSyncErrorCorrection(delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncErrorTick += delta
}

// SetResampleMode records the mode only; OtoRenderer applies no
// resampling, and GetResampleRatio always reports 1.0.
func (r *OtoRenderer) SetResampleMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resample = on
}

var _ Renderer = (*OtoRenderer)(nil)
