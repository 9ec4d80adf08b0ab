package worker

import (
	"github.com/vexcore/avsync/internal/syncctrl"
	"github.com/vexcore/avsync/media"
)

// run is the worker's single long-lived goroutine: decode -> sync ->
// render, maintaining the stalled/started flags and publishing
// telemetry every iteration.
func (w *Worker) run() {
	defer close(w.done)

	for {
		flags, frame := w.decodeFrame()
		if w.speed != media.SpeedNormal && w.started {
			flags |= FlagDrop
		}
		w.publishTelemetry(frame)

		if flags.Has(FlagError) {
			continue
		}
		if flags.Has(FlagTimeout) {
			if w.speed == media.SpeedNormal && !w.stalled {
				w.renderer.Drain()
				w.renderer.Flush()
				w.stalled = true
			}
			continue
		}
		if flags.Has(FlagAbort) {
			return
		}
		if frame.IsEmpty() {
			continue
		}

		if !w.renderer.IsValidFormat(frame) {
			w.recreateRenderer(frame)
		}

		if w.silence {
			zeroFrame(frame)
		}

		dropped := flags.Has(FlagDrop)
		if dropped {
			w.log.Debug("dropping frame", "pts", frame.PTS, "speed", w.speed)
		} else {
			w.sync.Select(frame.Passthrough)
			switch w.sync.Emit(frame) {
			case syncctrl.ActionEmitOnce:
				w.renderer.AddPackets(frame)
			case syncctrl.ActionEmitTwice:
				w.renderer.AddPackets(frame)
				w.renderer.AddPackets(frame)
			case syncctrl.ActionDrop:
			}
			if w.stalled && w.renderer.GetCacheTime() > 0 && w.queueLevelPercent() > 5 {
				w.stalled = false
			}
		}

		if !w.started && !dropped {
			w.started = true
			w.notifyParent(StartedEvent{Player: playerName})
		}
	}
}

// recreateRenderer tears down and rebuilds the renderer when frame's
// format no longer matches what the renderer was built for.
func (w *Worker) recreateRenderer(frame *media.DecodedFrame) {
	w.log.Debug("recreating renderer for format change",
		"passthrough", frame.Passthrough, "sample_rate", frame.EncodedSampleRate, "channels", frame.Channels)
	if w.speed != media.SpeedPause {
		w.renderer.Drain()
	}
	w.renderer.Destroy()
	if w.speed != media.SpeedPause {
		w.renderer.Resume()
	} else {
		w.renderer.Pause()
	}
	w.renderer.Create(frame, w.stream.CodecID, w.syncCfg.Configured == media.SyncResample)

	if frame.Passthrough {
		w.stream.Channels = frame.EncodedChannels
	} else {
		w.stream.Channels = frame.Channels
	}
}

func zeroFrame(frame *media.DecodedFrame) {
	for _, plane := range frame.Planes {
		for i := range plane {
			plane[i] = 0
		}
	}
}

// queueLevelPercent reports the upstream message queue's byte fill as a
// percentage of capacity, feeding both the stalled-flag release check in
// run and the GetPlayerInfo queue-level heuristic.
func (w *Worker) queueLevelPercent() int {
	if w.queueMaxBytes <= 0 {
		return 0
	}
	bytes, _ := w.queue.DataSize()
	percent := int(bytes * 100 / w.queueMaxBytes)
	if percent > 100 {
		percent = 100
	}
	return percent
}

// publishTelemetry refreshes the externally-readable Snapshot. Guarded by
// telemetry's own mutex; safe to call every loop iteration regardless of
// whether frame is nil.
func (w *Worker) publishTelemetry(frame *media.DecodedFrame) {
	w.telemetry.update(func(s *Snapshot) {
		s.QueueLevelPercent = w.queueLevelPercent()
		s.CacheTimeSeconds = w.renderer.GetCacheTime()
		s.ResampleRatio = w.renderer.GetResampleRatio()
		s.PlayingPts = w.renderer.GetPlayingPts()
		s.Passthrough = frameOrStreamPassthrough(frame, s.Passthrough)
		s.Channels = w.stream.Channels
		s.Started = w.started
		s.Stalled = w.stalled
		s.BitrateKbps = estimateBitrateKbps(frame)
	})
}

func frameOrStreamPassthrough(frame *media.DecodedFrame, prev bool) bool {
	if frame == nil {
		return prev
	}
	return frame.Passthrough
}

// estimateBitrateKbps derives an instantaneous bitrate hint from a single
// decoded frame's byte size and duration — a UI hint like the rest of
// TelemetryView, not a tracked running average.
func estimateBitrateKbps(frame *media.DecodedFrame) float64 {
	if frame.IsEmpty() || frame.Duration <= 0 {
		return 0
	}
	bytes := 0
	for _, p := range frame.Planes {
		bytes += len(p)
	}
	seconds := float64(frame.Duration) / media.TimeBase
	return float64(bytes) * 8 / 1000 / seconds
}
