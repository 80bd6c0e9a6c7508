package messaging

import (
	"context"
	"fmt"
)

// DataChannel is the reliable, ordered delivery capability messages are
// published over. Delivery guarantees belong to the implementation.
type DataChannel interface {
	Send(ctx context.Context, payload []byte, topic string, reliable bool) error
}

// ChannelError reports a failed publish. Publishes are fire-and-forget:
// the failure propagates to the caller and is never retried here.
type ChannelError struct {
	Topic string
	Err   error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("publish to topic %q: %v", e.Topic, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Publish sends the message's JSON encoding over ch, reliably, with the
// event name as the topic.
func Publish(ctx context.Context, ch DataChannel, m *Message) error {
	encoded, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := ch.Send(ctx, []byte(encoded), m.Event, true); err != nil {
		return &ChannelError{Topic: m.Event, Err: err}
	}
	return nil
}
