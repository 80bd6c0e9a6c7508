package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Player streams wave files into a FrameSink one batch at a time. At
// most one batch is ever in flight: the next read does not start until
// the sink has consumed the previous batch.
type Player struct {
	batch time.Duration
	log   *slog.Logger
}

type PlayerOption func(*Player)

// WithBatchDuration overrides the per-batch playback duration.
func WithBatchDuration(d time.Duration) PlayerOption {
	return func(p *Player) {
		if d > 0 {
			p.batch = d
		}
	}
}

// WithLogger sets the logger used to report non-fatal playout errors.
func WithLogger(l *slog.Logger) PlayerOption {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

func NewPlayer(opts ...PlayerOption) *Player {
	p := &Player{
		batch: DefaultBatchDuration,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play streams the wave file at path into sink and releases everything
// it acquired, on every exit path.
//
// A sink rejection stops production, still drains the playout-wait and
// close steps, and surfaces a *SinkError. Failures from the wait or
// close steps after a clean stream are logged and returned as a
// *PlayoutError, which callers may choose to ignore. Cancellation is
// observed between batches; the file handle and the sink are still
// released before the context error propagates.
func (p *Player) Play(ctx context.Context, path string, sink FrameSink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := NewFrameReader(f, p.batch)
	if err != nil {
		return err
	}

	var sinkErr *SinkError
	for {
		if err := ctx.Err(); err != nil {
			p.closeSink(ctx, sink)
			return fmt.Errorf("playback cancelled: %w", err)
		}

		batch, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.closeSink(ctx, sink)
			return err
		}

		if err := sink.CaptureFrame(ctx, batch); err != nil {
			sinkErr = &SinkError{Op: "capture frame", Err: err}
			break
		}
	}

	var playoutErr error
	if err := sink.WaitForPlayout(ctx); err != nil {
		p.log.Error("wait for playout failed", "path", path, "err", err)
		playoutErr = fmt.Errorf("wait for playout: %w", err)
	}
	if err := sink.Close(ctx); err != nil {
		p.log.Error("close sink failed", "path", path, "err", err)
		if playoutErr == nil {
			playoutErr = fmt.Errorf("close sink: %w", err)
		}
	}

	if sinkErr != nil {
		return sinkErr
	}
	if playoutErr != nil {
		return &PlayoutError{Err: playoutErr}
	}
	return nil
}

// closeSink is the best-effort release used on the abnormal exit
// paths. The detached context lets the sink clean up even when the
// caller's context is already cancelled.
func (p *Player) closeSink(ctx context.Context, sink FrameSink) {
	if err := sink.Close(context.WithoutCancel(ctx)); err != nil {
		p.log.Error("close sink failed", "err", err)
	}
}

// Probe reads a wave header and reports the stream's sample rate and
// channel count without decoding any audio.
func Probe(path string) (sampleRate, channels int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := NewFrameReader(f, 0)
	if err != nil {
		return 0, 0, err
	}
	return reader.SampleRate(), reader.NumChannels(), nil
}
