package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat marks a file that is not a readable PCM wave
	// container, or one whose header carries nonsensical fields.
	ErrInvalidFormat = errors.New("invalid waveform format")

	// ErrUnsupportedFormat marks a wave file whose declared sample
	// format this package cannot play, such as a bit depth other
	// than 16.
	ErrUnsupportedFormat = errors.New("unsupported waveform format")
)

// SinkError reports that the frame sink rejected a capture call.
// Production stops at the first rejection; the release path still runs.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// PlayoutError wraps a failure from the playout-wait or close steps
// after all frames were delivered. It is reported rather than fatal:
// callers that only care whether the stream itself succeeded may
// ignore it.
type PlayoutError struct {
	Err error
}

func (e *PlayoutError) Error() string {
	return fmt.Sprintf("playout: %v", e.Err)
}

func (e *PlayoutError) Unwrap() error { return e.Err }
