package worker

import (
	"math"
	"time"

	"github.com/vexcore/avsync/internal/msgqueue"
	"github.com/vexcore/avsync/media"
)

// handleControl dispatches one non-data message inline. It runs only on
// the loop goroutine.
func (w *Worker) handleControl(msg msgqueue.Message) {
	switch m := msg.(type) {
	case *msgqueue.SynchronizeMsg:
		if !m.Barrier.Wait(100 * time.Millisecond) {
			// Not released yet: re-queue at priority 1 so other control
			// messages behind it aren't starved.
			_ = w.queue.Put(m, 0)
		}

	case *msgqueue.ResyncMsg:
		w.log.Debug("resync", "audio_clock", w.audioClock, "set_clock", m.SetClock)
		if v, ok := m.Timestamp.Get(); ok {
			w.audioClock = int64(v)
		}
		w.pts.Flush()
		if m.SetClock {
			w.clock.Discontinuity(w.audioClock)
		}

	case *msgqueue.ResetMsg:
		w.log.Debug("reset")
		if w.codec != nil {
			w.codec.Reset()
		}
		w.pending.Release()
		w.started = false

	case *msgqueue.FlushMsg:
		w.log.Debug("flush")
		w.renderer.Flush()
		w.pts.Flush()
		w.stalled = true
		w.started = false
		if w.codec != nil {
			w.codec.Reset()
		}
		w.pending.Release()

	case *msgqueue.PlayerStartedMsg:
		if w.started {
			w.notifyParent(StartedEvent{Player: playerName})
		}

	case *msgqueue.DisplayTimeMsg:
		if m.State.TimeSource == msgqueue.TimeSourceClock {
			clock, _ := w.clock.GetClock()
			m.State.Time = media.ToDuration(clock + m.State.TimeOffset).Milliseconds()
		} else {
			_, absolute := w.clock.GetClock()
			m.State.Timestamp = absolute
		}
		m.State.Player = playerName
		w.notifyParent(DisplayTimeEvent{State: m.State})

	case *msgqueue.EOFMsg:
		w.renderer.Finish()

	case *msgqueue.DelayMsg:
		w.handleDelay(m.Duration)

	case *msgqueue.SetSpeedMsg:
		prev := w.speed
		w.speed = m.Speed
		switch {
		case w.speed == media.SpeedNormal && prev != media.SpeedNormal:
			w.renderer.Resume()
		case w.speed != media.SpeedNormal:
			w.renderer.Pause()
		}

	case *msgqueue.SilenceMsg:
		w.silence = m.On

	case *msgqueue.CodecChangeMsg:
		w.log.Info("codec change", "codec_id", m.Hints.CodecID)
		w.installCodec(m.Hints, m.Codec)
	}
}

// handleDelay sleeps out d scaled by the current speed, in 1ms slices so
// an abort or close can interrupt it promptly.
func (w *Worker) handleDelay(d time.Duration) {
	if w.speed == media.SpeedPause {
		return
	}
	scale := float64(media.SpeedNormal) / math.Abs(float64(w.speed))
	total := time.Duration(float64(d) * scale)

	const slice = time.Millisecond
	var elapsed time.Duration
	for elapsed < total {
		step := slice
		if remaining := total - elapsed; remaining < step {
			step = remaining
		}
		select {
		case <-w.ctx.Done():
			return
		case <-time.After(step):
		}
		elapsed += step
	}
}

// notifyParent forwards e to the parent channel, if any, observing
// cancellation so a worker shutdown never wedges on a parent that stopped
// reading.
func (w *Worker) notifyParent(e ParentEvent) {
	if w.parent == nil {
		return
	}
	select {
	case w.parent <- e:
	case <-w.ctx.Done():
	}
}
