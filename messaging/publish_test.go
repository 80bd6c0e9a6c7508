package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeChannel struct {
	payloads  [][]byte
	topics    []string
	reliables []bool
	sendErr   error
}

func (c *fakeChannel) Send(ctx context.Context, payload []byte, topic string, reliable bool) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.payloads = append(c.payloads, payload)
	c.topics = append(c.topics, topic)
	c.reliables = append(c.reliables, reliable)
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	m := Hangup("user_requested")

	if err := Publish(context.Background(), ch, m); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(ch.payloads) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(ch.payloads))
	}
	if ch.topics[0] != EventHangup {
		t.Errorf("topic must equal the event name, got %q", ch.topics[0])
	}
	if !ch.reliables[0] {
		t.Error("publish must request reliable delivery")
	}

	var decoded map[string]any
	if err := json.Unmarshal(ch.payloads[0], &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded["event"] != EventHangup {
		t.Errorf("expected event %q in payload, got %v", EventHangup, decoded["event"])
	}
}

func TestPublish_ChannelFailure(t *testing.T) {
	cause := errors.New("data channel closed")
	ch := &fakeChannel{sendErr: cause}

	err := Publish(context.Background(), ch, Hangup(""))

	var chanErr *ChannelError
	if !errors.As(err, &chanErr) {
		t.Fatalf("expected *ChannelError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("ChannelError should wrap the send failure")
	}
	if chanErr.Topic != EventHangup {
		t.Errorf("expected topic %q on the error, got %q", EventHangup, chanErr.Topic)
	}
	if len(ch.payloads) != 0 {
		t.Error("no payload should be recorded on failure")
	}
}
