package audio

import "context"

// FrameSink accepts batches for real-time playout. Implementations are
// expected to block in CaptureFrame until they are ready for the next
// batch; that blocking is the pipeline's only backpressure mechanism.
type FrameSink interface {
	// CaptureFrame delivers one batch and waits until the sink has
	// consumed it.
	CaptureFrame(ctx context.Context, batch *FrameBatch) error

	// WaitForPlayout blocks until every delivered batch has been
	// played out.
	WaitForPlayout(ctx context.Context) error

	// Close releases the sink. Safe to call after an error.
	Close(ctx context.Context) error
}
