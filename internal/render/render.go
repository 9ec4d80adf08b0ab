// Package render defines the audio renderer facade the worker depends on
// and carries the concrete implementations: an oto/v2-backed device
// renderer for real output, and a null renderer for tests. The audio
// engine itself (device enumeration, mixing, resampling internals) is
// out of scope for this core; this package is the seam.
package render

import "github.com/vexcore/avsync/media"

// Renderer is the facade the worker's SyncController and run loop use to
// talk to the audio output device.
type Renderer interface {
	// IsValidFormat reports whether the current device can accept frames
	// shaped like f without being recreated.
	IsValidFormat(f *media.DecodedFrame) bool

	// Create (re)initializes the output device for the given frame shape.
	// useResample hints that the device should apply continuous
	// resample-based sync correction rather than discontinuity/skip-dup.
	Create(f *media.DecodedFrame, codecID string, useResample bool) bool

	// Destroy tears down the current device instance.
	Destroy()

	Pause()
	Resume()

	// Drain blocks until all buffered audio has played out.
	Drain()
	// Flush discards buffered audio without waiting for it to play.
	Flush()
	// Finish signals EOF; cached audio should still play out.
	Finish()

	// AddPackets submits a decoded frame for playback.
	AddPackets(f *media.DecodedFrame)

	// GetCacheTime reports seconds of audio currently buffered.
	GetCacheTime() float64
	// GetPlayingPts reports the timestamp of the sample currently audible.
	GetPlayingPts() media.OptionalPTS
	// GetResampleRatio reports the renderer-internal resample ratio
	// currently applied for continuous sync correction.
	GetResampleRatio() float64
	// GetSyncError reports the current measured offset (ticks) versus the
	// reference clock.
	GetSyncError() int64
	// SetSyncErrorCorrection nudges the renderer's notion of sync error by
	// delta ticks, after the SyncController has accounted for it.
	SetSyncErrorCorrection(delta int64)
	// SetResampleMode toggles continuous resample-based correction.
	SetResampleMode(on bool)
}
