// Package worker drives the audio decode/sync/render pipeline: a single
// long-lived goroutine that pulls compressed packets and control messages
// off a priority queue, decodes them, applies clock-synchronization
// corrections, and hands the result to a renderer.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vexcore/avsync/internal/codec"
	"github.com/vexcore/avsync/internal/msgqueue"
	"github.com/vexcore/avsync/internal/ptsqueue"
	"github.com/vexcore/avsync/internal/refclock"
	"github.com/vexcore/avsync/internal/render"
	"github.com/vexcore/avsync/internal/syncctrl"
	"github.com/vexcore/avsync/media"
)

// defaultQueueMaxBytes and defaultQueueMaxDuration set the upstream
// queue's backpressure bound (6 MiB, 8s).
const (
	defaultQueueMaxBytes    = 6 * 1024 * 1024
	defaultQueueMaxDuration = 8 * media.TimeBase
)

// Options configures a Worker at construction. Every collaborator is
// injected explicitly — the reference clock, renderer, and codec factory
// are ambient singletons in many players; here they're constructor
// arguments.
type Options struct {
	CodecFactory codec.Factory
	Renderer     render.Renderer
	Clock        refclock.Clock

	// Parent receives StartedEvent/DisplayTimeEvent notifications. May be
	// nil if the caller doesn't need them.
	Parent chan<- ParentEvent

	// UseDisplayAsClock selects the configured sync preference: true means
	// RESAMPLE, false (default) means DISCON.
	UseDisplayAsClock bool
	MaxSpeedAdjust    float64
	VBlankPeriod      int64

	Logger *slog.Logger

	QueueMaxBytes    int64
	QueueMaxDuration int64
}

// Worker is the audio pipeline core. Construct with New, install a stream
// with OpenStream, and tear down with CloseStream. A Worker is safe for
// concurrent use by its public methods; the loop goroutine is the sole
// owner of decode/sync-exclusive state.
type Worker struct {
	id  uuid.UUID
	log *slog.Logger

	codecFactory codec.Factory
	renderer     render.Renderer
	clock        refclock.Clock
	parent       chan<- ParentEvent
	syncCfg      syncctrl.Config

	queue *msgqueue.Queue
	pts   *ptsqueue.Queue

	telemetry telemetry

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	running bool
	closed  bool

	queueMaxBytes int64

	// loop-exclusive state: touched only from the run-loop goroutine, or
	// before the loop is started (construction is ordered so there is no
	// race).
	stream     media.StreamInfo
	codec      codec.Codec
	pending    media.PendingPacket
	audioClock int64
	started    bool
	stalled    bool
	silence    bool
	speed      media.Speed
	sync       *syncctrl.Controller
}

// New creates a Worker. No goroutine is started until OpenStream installs
// the first codec.
func New(opts Options) *Worker {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	id := uuid.New()
	log = log.With("component", "audio-worker", "session", id.String())

	maxBytes := opts.QueueMaxBytes
	if maxBytes == 0 {
		maxBytes = defaultQueueMaxBytes
	}
	maxDur := opts.QueueMaxDuration
	if maxDur == 0 {
		maxDur = defaultQueueMaxDuration
	}

	configured := media.SyncDiscontinuity
	if opts.UseDisplayAsClock {
		configured = media.SyncResample
	}

	w := &Worker{
		id:           id,
		log:          log,
		codecFactory: opts.CodecFactory,
		renderer:     opts.Renderer,
		clock:        opts.Clock,
		parent:       opts.Parent,
		syncCfg: syncctrl.Config{
			Configured:     configured,
			MaxSpeedAdjust: opts.MaxSpeedAdjust,
			VBlankPeriod:   opts.VBlankPeriod,
		},
		queue:         msgqueue.New(maxBytes, maxDur),
		pts:           ptsqueue.New(),
		speed:         media.SpeedNormal,
		audioClock:    0,
		queueMaxBytes: maxBytes,
	}
	w.sync = syncctrl.New(w.syncCfg, w.clock, w.renderer, w.log)
	return w
}

// OpenStream installs hints as the active stream. If the worker is
// already running, installation happens asynchronously through a
// codec-change message so it takes effect in order relative to packets
// already queued; otherwise it installs inline and starts the worker
// goroutine.
func (w *Worker) OpenStream(hints media.StreamInfo) (bool, error) {
	c, err := w.codecFactory(hints)
	if err != nil || c == nil {
		w.log.Error("codec unsupported", "codec_id", hints.CodecID, "error", err)
		return false, ErrCodecUnsupported
	}

	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	if running {
		if err := w.queue.Put(&msgqueue.CodecChangeMsg{Hints: hints, Codec: c}, 0); err != nil {
			c.Dispose()
			return false, err
		}
		return true, nil
	}

	w.installCodec(hints, c)
	w.startLoop()
	w.log.Info("stream opened", "codec_id", hints.CodecID, "sample_rate", hints.SampleRate, "channels", hints.Channels)
	return true, nil
}

// installCodec takes ownership of c, folds its self-reported format into
// StreamInfo, and resets per-stream state. It runs either before the loop
// has started (inline open) or from the loop goroutine itself (runtime
// codec-change message) — never concurrently with the loop, by
// construction.
func (w *Worker) installCodec(hints media.StreamInfo, c codec.Codec) {
	w.log.Info("codec installed", "codec_id", hints.CodecID)
	if w.codec != nil {
		w.codec.Dispose()
	}
	w.codec = c
	w.stream = hints

	if sr := c.EncodedSampleRate(); sr != 0 {
		w.stream.SampleRate = sr
	}
	if ch := c.EncodedChannels(); ch != 0 {
		w.stream.Channels = ch
	}

	if c.EncodedSampleRate() != 0 && c.EncodedSampleRate() != hints.SampleRate {
		w.switchCodecIfNeeded()
	}

	w.audioClock = 0
	w.started = false
	w.stalled = true // queue empty
	w.silence = false
	w.pending.Release()
	w.pts.Flush()
	w.sync = syncctrl.New(w.syncCfg, w.clock, w.renderer, w.log)
}

// switchCodecIfNeeded instantiates a trial codec from the current
// StreamInfo and swaps it in if its passthrough need differs from the
// installed codec's — the "the first call couldn't know the true rate"
// correction path.
func (w *Worker) switchCodecIfNeeded() bool {
	trial, err := w.codecFactory(w.stream)
	if err != nil || trial == nil {
		return false
	}
	if w.codec != nil && trial.NeedPassthrough() == w.codec.NeedPassthrough() {
		trial.Dispose()
		return false
	}
	if w.codec != nil {
		w.codec.Dispose()
	}
	w.log.Debug("passthrough switch", "need_passthrough", trial.NeedPassthrough())
	w.codec = trial
	return true
}

func (w *Worker) startLoop() {
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})
	go w.run()
}

// CloseStream tears the worker down. If waitForBuffers, it first waits
// for the queue to drain and the renderer cache to mostly empty; either
// way it then aborts the queue, cancels the loop's context, and joins it.
func (w *Worker) CloseStream(waitForBuffers bool) error {
	if err := w.checkState(); err != nil {
		return err
	}

	if waitForBuffers {
		_ = w.WaitForBuffers()
	}

	w.queue.Abort()
	w.cancel()
	<-w.done

	if w.codec != nil {
		w.codec.Dispose()
		w.codec = nil
	}
	w.renderer.Destroy()

	w.mu.Lock()
	w.running = false
	w.closed = true
	w.mu.Unlock()
	w.log.Info("stream closed", "wait_for_buffers", waitForBuffers)
	return nil
}

// Send enqueues a message from the upstream producer/demuxer side — the
// producer-facing counterpart to OpenStream/SetSpeed/Flush, used for
// DemuxerPacket, Synchronize, Resync, Reset, PlayerStarted, DisplayTime,
// EOF, Delay, and Silence messages. timeout applies only to data packets,
// which back-pressure against the queue's byte/duration caps; control
// messages never block.
func (w *Worker) Send(msg msgqueue.Message, timeout time.Duration) error {
	if err := w.checkState(); err != nil {
		return err
	}
	return w.queue.Put(msg, timeout)
}

// SetSpeed changes the playback speed, deferred through the queue so it
// takes effect between decode steps rather than mid-frame.
func (w *Worker) SetSpeed(s media.Speed) error {
	if err := w.checkState(); err != nil {
		return err
	}
	return w.queue.Put(&msgqueue.SetSpeedMsg{Speed: s}, 0)
}

// Flush enqueues a priority-1 flush request.
func (w *Worker) Flush() error {
	if err := w.checkState(); err != nil {
		return err
	}
	return w.queue.Put(&msgqueue.FlushMsg{}, 0)
}

// WaitForBuffers waits for the queue to drain, then sleeps out most of
// the renderer's buffered cache, leaving a ~500ms margin so playback
// doesn't underrun the instant the caller proceeds.
func (w *Worker) WaitForBuffers() error {
	if err := w.checkState(); err != nil {
		return err
	}
	if err := w.queue.WaitEmpty(w.ctx); err != nil {
		return err
	}

	const margin = 500 * time.Millisecond
	cache := time.Duration(w.renderer.GetCacheTime() * float64(time.Second))
	sleep := cache - margin
	if sleep <= 0 {
		return nil
	}
	select {
	case <-time.After(sleep):
	case <-w.ctx.Done():
	}
	return nil
}

func (w *Worker) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// checkState reports why a running-worker operation can't proceed: it
// was never opened, or it was opened and has since been closed.
func (w *Worker) checkState() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.closed {
		return ErrQueueClosed
	}
	return ErrNotRunning
}
