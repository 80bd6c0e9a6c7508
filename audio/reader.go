package audio

import (
	"fmt"
	"io"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultBatchDuration is the amount of audio carried by one batch
// unless the caller asks for a different slicing.
const DefaultBatchDuration = time.Second

// FrameReader decodes a PCM wave stream into a lazy, finite sequence of
// FrameBatch values. It owns no resources of its own; the caller keeps
// ownership of the underlying reader.
type FrameReader struct {
	dec         *wav.Decoder
	sampleRate  int
	channels    int
	batchFrames int
	buf         *gaudio.IntBuffer
}

// NewFrameReader validates the wave header and prepares batch-sized
// reads. A zero batchDuration selects DefaultBatchDuration.
//
// The declared bit depth is read and honored: anything other than
// 16-bit signed PCM fails with ErrUnsupportedFormat instead of being
// silently misread.
func NewFrameReader(r io.ReadSeeker, batchDuration time.Duration) (*FrameReader, error) {
	// Header fields are checked directly rather than through
	// IsValidFile, which also demands a positive duration and would
	// reject a legitimately empty stream.
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: audio format %d, want PCM", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%w: bit depth %d, want 16", ErrUnsupportedFormat, dec.BitDepth)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: channels=%d sample_rate=%d", ErrInvalidFormat, dec.NumChans, dec.SampleRate)
	}

	if batchDuration <= 0 {
		batchDuration = DefaultBatchDuration
	}
	sampleRate := int(dec.SampleRate)
	channels := int(dec.NumChans)
	batchFrames := int(time.Duration(sampleRate) * batchDuration / time.Second)
	if batchFrames <= 0 {
		batchFrames = 1
	}

	return &FrameReader{
		dec:         dec,
		sampleRate:  sampleRate,
		channels:    channels,
		batchFrames: batchFrames,
		buf: &gaudio.IntBuffer{
			Data:   make([]int, batchFrames*channels),
			Format: dec.Format(),
		},
	}, nil
}

// SampleRate reports the sample rate declared by the wave header.
func (r *FrameReader) SampleRate() int { return r.sampleRate }

// NumChannels reports the channel count declared by the wave header.
func (r *FrameReader) NumChannels() int { return r.channels }

// BatchFrames reports how many sample-frames a full batch carries.
func (r *FrameReader) BatchFrames() int { return r.batchFrames }

// Next returns the next batch, or io.EOF once the stream is exhausted.
// The final batch may be shorter than a full one; no empty batch is
// ever emitted. A trailing read that does not divide evenly by the
// channel count is truncated down to whole sample-frames.
func (r *FrameReader) Next() (*FrameBatch, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if err == io.EOF || n == 0 {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}

	usable := n - n%r.channels
	if usable == 0 {
		return nil, io.EOF
	}

	data := make([]int16, usable)
	for i := 0; i < usable; i++ {
		data[i] = int16(r.buf.Data[i])
	}

	return &FrameBatch{
		SampleRate:        r.sampleRate,
		NumChannels:       r.channels,
		SamplesPerChannel: usable / r.channels,
		Data:              data,
	}, nil
}
