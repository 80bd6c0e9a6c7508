package livekit

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	lkproto "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/zaf/resample"
	"gopkg.in/hraban/opus.v2"

	"github.com/ghb-enzian/enzian-lib/audio"
)

const (
	opusFrameDuration = 20 * time.Millisecond
	opusClockRate     = 48000
	maxOpusPacket     = 1000
)

// Rates the opus encoder accepts natively; anything else is resampled
// up to the RTP clock rate first.
var opusRates = map[int]bool{
	8000:  true,
	12000: true,
	16000: true,
	24000: true,
	48000: true,
}

// TrackSink plays PCM frame batches into a room as a published opus
// audio track. It implements audio.FrameSink.
//
// Writes are paced to real time: CaptureFrame blocks until the batch's
// worth of 20 ms frames has been handed to the track on schedule. That
// blocking is what keeps a single batch in flight upstream.
type TrackSink struct {
	lp    *lksdk.LocalParticipant
	track *lksdk.LocalSampleTrack
	pub   *lksdk.LocalTrackPublication

	enc    *opus.Encoder
	res    *resample.Resampler
	resOut *bytes.Buffer

	inRate       int
	outRate      int
	channels     int
	frameSamples int // samples per 20 ms frame, all channels
	pending      []int16
	opusBuf      []byte

	next time.Time // schedule for the next frame write
	log  *slog.Logger

	trackName string
}

var _ audio.FrameSink = (*TrackSink)(nil)

type TrackSinkOption func(*TrackSink)

// WithTrackName overrides the published track name (default "audio").
func WithTrackName(name string) TrackSinkOption {
	return func(s *TrackSink) {
		if name != "" {
			s.trackName = name
		}
	}
}

// WithSinkLogger sets the sink's logger.
func WithSinkLogger(l *slog.Logger) TrackSinkOption {
	return func(s *TrackSink) {
		if l != nil {
			s.log = l
		}
	}
}

// NewTrackSink publishes a microphone-sourced opus track to room and
// returns a sink that accepts interleaved 16-bit PCM at the given rate
// and channel layout. Opus carries one or two channels only.
func NewTrackSink(room *lksdk.Room, sampleRate, channels int, opts ...TrackSinkOption) (*TrackSink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("opus supports mono or stereo, got %d channels", channels)
	}

	s := &TrackSink{
		lp:        room.LocalParticipant,
		inRate:    sampleRate,
		outRate:   sampleRate,
		channels:  channels,
		opusBuf:   make([]byte, maxOpusPacket),
		log:       slog.Default(),
		trackName: "audio",
	}
	for _, opt := range opts {
		opt(s)
	}

	if !opusRates[sampleRate] {
		s.outRate = opusClockRate
		s.resOut = &bytes.Buffer{}
		res, err := resample.New(s.resOut, float64(sampleRate), float64(s.outRate), channels, resample.I16, resample.HighQ)
		if err != nil {
			return nil, fmt.Errorf("create resampler %d->%d: %w", sampleRate, s.outRate, err)
		}
		s.res = res
	}
	s.frameSamples = opusFrameSamples(s.outRate, channels)

	enc, err := opus.NewEncoder(s.outRate, channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	s.enc = enc

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: opusClockRate,
		Channels:  uint16(channels),
	})
	if err != nil {
		return nil, fmt.Errorf("create audio track: %w", err)
	}
	s.track = track

	pub, err := s.lp.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   s.trackName,
		Source: lkproto.TrackSource_MICROPHONE,
	})
	if err != nil {
		return nil, fmt.Errorf("publish audio track: %w", err)
	}
	s.pub = pub

	s.log.Debug("audio track published", "sid", pub.SID(), "rate", sampleRate, "channels", channels)
	return s, nil
}

// CaptureFrame consumes one batch, encoding and writing its 20 ms opus
// frames on the real-time schedule. It returns once every full frame in
// the batch is on the wire; a trailing sub-frame remainder is carried
// over to the next call.
func (s *TrackSink) CaptureFrame(ctx context.Context, batch *audio.FrameBatch) error {
	if batch.SampleRate != s.inRate || batch.NumChannels != s.channels {
		return fmt.Errorf("batch format %dHz/%dch does not match track %dHz/%dch",
			batch.SampleRate, batch.NumChannels, s.inRate, s.channels)
	}

	pcm, err := s.convert(batch.Data)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, pcm...)
	return s.writeFrames(ctx, false)
}

// WaitForPlayout flushes the resampler and the sub-frame tail, then
// waits out the write schedule so the last frame has left before the
// track is torn down. Only here is the tail silence-padded up to a full
// opus frame; batches themselves are never padded.
func (s *TrackSink) WaitForPlayout(ctx context.Context) error {
	if s.res != nil {
		if err := s.res.Close(); err != nil {
			return fmt.Errorf("flush resampler: %w", err)
		}
		s.res = nil
		s.pending = append(s.pending, s.drainResampled()...)
	}

	if err := s.writeFrames(ctx, true); err != nil {
		return err
	}

	if s.next.IsZero() {
		return nil
	}
	return waitUntil(ctx, s.next)
}

// Close unpublishes the track. Safe to call more than once and after
// errors.
func (s *TrackSink) Close(_ context.Context) error {
	if s.pub == nil {
		return nil
	}
	sid := s.pub.SID()
	s.pub = nil

	if err := s.lp.UnpublishTrack(sid); err != nil {
		return fmt.Errorf("unpublish track: %w", err)
	}
	s.log.Debug("audio track unpublished", "sid", sid)
	return nil
}

// convert feeds samples through the resampler when one is configured.
func (s *TrackSink) convert(in []int16) ([]int16, error) {
	if s.res == nil {
		return in, nil
	}
	if _, err := s.res.Write(pcmBytes(in)); err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	return s.drainResampled(), nil
}

func (s *TrackSink) drainResampled() []int16 {
	pcm := bytesPCM(s.resOut.Bytes())
	s.resOut.Reset()
	return pcm
}

// writeFrames drains pending in full opus frames. With flush set, a
// trailing remainder is zero-padded and written too.
func (s *TrackSink) writeFrames(ctx context.Context, flush bool) error {
	for len(s.pending) >= s.frameSamples {
		frame := s.pending[:s.frameSamples]
		s.pending = s.pending[s.frameSamples:]
		if err := s.writeFrame(ctx, frame); err != nil {
			return err
		}
	}

	if flush && len(s.pending) > 0 {
		frame := make([]int16, s.frameSamples)
		copy(frame, s.pending)
		s.pending = nil
		return s.writeFrame(ctx, frame)
	}
	return nil
}

func (s *TrackSink) writeFrame(ctx context.Context, pcm []int16) error {
	n, err := s.enc.Encode(pcm, s.opusBuf)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	payload := make([]byte, n)
	copy(payload, s.opusBuf[:n])

	if !s.next.IsZero() {
		if err := waitUntil(ctx, s.next); err != nil {
			return err
		}
	} else {
		s.next = time.Now()
	}

	if err := s.track.WriteSample(media.Sample{Data: payload, Duration: opusFrameDuration}, nil); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	s.next = s.next.Add(opusFrameDuration)
	return nil
}

func waitUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// opusFrameSamples is the interleaved sample count of one 20 ms frame.
func opusFrameSamples(sampleRate, channels int) int {
	return sampleRate / 50 * channels
}

// pcmBytes renders interleaved samples as little-endian bytes.
func pcmBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, v := range in {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// bytesPCM parses little-endian bytes back into samples.
func bytesPCM(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}
