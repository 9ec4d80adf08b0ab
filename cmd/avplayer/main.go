// Command avplayer wires a synthetic packet producer into a Worker backed
// by a real audio device, demonstrating the full decode/sync/render
// pipeline end to end. It plays a fixed-frequency tone rather than
// reading a real container, since demuxing is out of scope for this core.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/vexcore/avsync/internal/codec"
	"github.com/vexcore/avsync/internal/msgqueue"
	"github.com/vexcore/avsync/internal/refclock"
	"github.com/vexcore/avsync/internal/render"
	"github.com/vexcore/avsync/internal/worker"
	"github.com/vexcore/avsync/media"
)

func main() {
	var (
		sampleRate   = flag.Int("sample-rate", 48000, "synthetic stream sample rate")
		channels     = flag.Int("channels", 2, "synthetic stream channel count")
		speed        = flag.Int("speed", int(media.SpeedNormal), "initial playback speed (1000 = normal)")
		duration     = flag.Duration("duration", 5*time.Second, "how long to play before exiting")
		toneHz       = flag.Float64("tone-hz", 440.0, "synthetic tone frequency")
		useDisplay   = flag.Bool("use-display-clock", false, "prefer RESAMPLE sync instead of DISCON")
		packetFrames = flag.Int("packet-frames", 1024, "sample frames per synthetic packet")
		debug        = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	renderer := render.NewOtoRenderer(ctx, slog.Default())
	clock := refclock.NewMonotonic(refclock.MasterVideo)
	parent := make(chan worker.ParentEvent, 16)

	factory := func(hints media.StreamInfo) (codec.Codec, error) {
		return codec.NewPCMCodec(hints, 2, *packetFrames, false), nil
	}

	w := worker.New(worker.Options{
		CodecFactory:      factory,
		Renderer:          renderer,
		Clock:             clock,
		Parent:            parent,
		UseDisplayAsClock: *useDisplay,
		MaxSpeedAdjust:    1000,
		Logger:            slog.Default(),
	})

	sessionID := uuid.New()
	slog.Info("avplayer starting",
		"session", sessionID.String(),
		"sample_rate", *sampleRate,
		"channels", *channels,
		"speed", *speed,
		"duration", duration.String(),
	)

	ok, err := w.OpenStream(media.StreamInfo{
		CodecID:    "pcm",
		SampleRate: *sampleRate,
		Channels:   *channels,
	})
	if err != nil || !ok {
		slog.Error("failed to open stream", "error", err)
		os.Exit(1)
	}

	if media.Speed(*speed) != media.SpeedNormal {
		if err := w.SetSpeed(media.Speed(*speed)); err != nil {
			slog.Error("failed to set initial speed", "error", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return produceTone(ctx, w, *sampleRate, *channels, *toneHz, *packetFrames)
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-parent:
				logParentEvent(ev)
			}
		}
	})

	g.Go(func() error {
		select {
		case <-time.After(*duration):
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("avplayer error", "error", err)
	}

	if err := w.CloseStream(true); err != nil {
		slog.Error("close stream", "error", err)
	}
	fmt.Println("done")
}

// produceTone feeds 16-bit signed interleaved sine-wave packets (the same
// sample on every channel) into w at
// real-time pace, standing in for a real demuxer.
func produceTone(ctx context.Context, w *worker.Worker, sampleRate, channels int, toneHz float64, framesPerPacket int) error {
	bytesPerSample := 2
	packetBytes := framesPerPacket * channels * bytesPerSample
	packetDuration := time.Duration(framesPerPacket) * time.Second / time.Duration(sampleRate)

	var sampleIndex int64
	var dtsTicks int64
	ticker := time.NewTicker(packetDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		data := make([]byte, packetBytes)
		for i := 0; i < framesPerPacket; i++ {
			t := float64(sampleIndex) / float64(sampleRate)
			sample := int16(math.Sin(2*math.Pi*toneHz*t) * 0.2 * float64(1<<15-1))
			for ch := 0; ch < channels; ch++ {
				off := (i*channels + ch) * bytesPerSample
				data[off] = byte(sample)
				data[off+1] = byte(sample >> 8)
			}
			sampleIndex++
		}

		err := w.Send(&msgqueue.DemuxerPacketMsg{
			Data:     data,
			DTS:      media.SomePTS(media.PTS(dtsTicks)),
			Duration: media.FromDuration(packetDuration),
		}, time.Second)
		if err != nil {
			return err
		}
		dtsTicks += media.FromDuration(packetDuration)
	}
}

func logParentEvent(ev worker.ParentEvent) {
	switch e := ev.(type) {
	case worker.StartedEvent:
		slog.Info("playback started", "player", e.Player)
	case worker.DisplayTimeEvent:
		slog.Debug("display time", "player", e.State.Player, "time_ms", e.State.Time)
	}
}
