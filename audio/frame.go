// Package audio streams 16-bit PCM wave files into an abstract frame
// sink as fixed-duration batches of interleaved samples.
package audio

import "time"

// FrameBatch is one fixed-duration slice of interleaved 16-bit PCM
// samples. Data always holds exactly NumChannels * SamplesPerChannel
// samples; a short final batch is truncated, never padded.
type FrameBatch struct {
	SampleRate        int
	NumChannels       int
	SamplesPerChannel int
	Data              []int16
}

// Duration returns the playback time covered by the batch.
func (b *FrameBatch) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.SamplesPerChannel) * time.Second / time.Duration(b.SampleRate)
}
