package messaging

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew_EmptyEvent(t *testing.T) {
	if _, err := New("", nil); !errors.Is(err, ErrEmptyEvent) {
		t.Errorf("expected ErrEmptyEvent, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	m, err := New("session.started", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Source != SourceAgent {
		t.Errorf("expected default source agent, got %q", m.Source)
	}
	if m.ID == "" {
		t.Error("expected a generated identifier")
	}
	if m.Timestamp <= 0 {
		t.Errorf("expected a positive timestamp, got %f", m.Timestamp)
	}
}

func TestNew_ExplicitIDAndTimestamp(t *testing.T) {
	m, err := New("session.started", nil,
		WithID("fixed-id"),
		WithTimestamp(1234.5),
		WithSource(SourceClient),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.ID != "fixed-id" {
		t.Errorf("expected pinned id, got %q", m.ID)
	}
	if m.Timestamp != 1234.5 {
		t.Errorf("expected pinned timestamp, got %f", m.Timestamp)
	}
	if m.Source != SourceClient {
		t.Errorf("expected client source, got %q", m.Source)
	}
}

func TestNew_ExplicitZeroTimestamp(t *testing.T) {
	m, err := New("session.started", nil, WithTimestamp(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Timestamp != 0 {
		t.Errorf("a pinned zero timestamp must be honored, got %f", m.Timestamp)
	}
}

func TestNew_UniqueIDsMonotonicTimestamps(t *testing.T) {
	a, err := New("tick", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New("tick", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.ID == b.ID {
		t.Error("two generated identifiers must differ")
	}
	if b.Timestamp < a.Timestamp {
		t.Errorf("timestamps must not decrease: %f then %f", a.Timestamp, b.Timestamp)
	}
}

func TestHangup(t *testing.T) {
	tests := []struct {
		name       string
		reason     string
		wantReason string
	}{
		{name: "default", reason: "", wantReason: "agent_initiated"},
		{name: "explicit", reason: "user_requested", wantReason: "user_requested"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Hangup(tt.reason)
			if m.Event != EventHangup {
				t.Errorf("expected event %q, got %q", EventHangup, m.Event)
			}
			if got := m.Data["reason"]; got != tt.wantReason {
				t.Errorf("expected reason %q, got %v", tt.wantReason, got)
			}
			if m.Source != SourceAgent {
				t.Errorf("expected agent source, got %q", m.Source)
			}
		})
	}
}

func TestMessage_ToMap(t *testing.T) {
	m, err := New("call.hangup", map[string]any{"reason": "timeout"}, WithID("id-1"), WithTimestamp(42))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := m.ToMap()
	if len(got) != 5 {
		t.Errorf("expected 5 keys, got %d", len(got))
	}
	if got["event"] != "call.hangup" || got["id"] != "id-1" || got["timestamp"] != 42.0 || got["source"] != "agent" {
		t.Errorf("unexpected mapping: %v", got)
	}

	// repeatable, no side effects
	again := m.ToMap()
	if again["id"] != "id-1" || again["timestamp"] != 42.0 {
		t.Error("ToMap must be pure and repeatable")
	}
}

func TestMessage_ToMap_NilData(t *testing.T) {
	m, err := New("ping", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v, ok := m.ToMap()["data"]; !ok || v != nil {
		t.Errorf("expected nil data value to be present, got %v (present=%v)", v, ok)
	}
}

func TestMessage_ToJSON_RoundTrip(t *testing.T) {
	m, err := New("call.hangup", map[string]any{"reason": "timeout"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	encoded, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, key := range []string{"event", "data", "source", "id", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if decoded["event"] != "call.hangup" {
		t.Errorf("expected event call.hangup, got %v", decoded["event"])
	}
	if decoded["source"] != "agent" {
		t.Errorf("expected source agent, got %v", decoded["source"])
	}
	data, ok := decoded["data"].(map[string]any)
	if !ok || data["reason"] != "timeout" {
		t.Errorf("expected data {reason: timeout}, got %v", decoded["data"])
	}
}

func TestMessage_ToJSON_NilDataIsNull(t *testing.T) {
	m, err := New("ping", nil, WithID("id"), WithTimestamp(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	encoded, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, ok := decoded["data"]; !ok || v != nil {
		t.Errorf("expected data to be null, got %v (present=%v)", v, ok)
	}
}

func TestMessage_SerializationDoesNotRegenerate(t *testing.T) {
	m, err := New("ping", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, ts := m.ID, m.Timestamp

	if _, err := m.ToJSON(); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	m.ToMap()

	if m.ID != id || m.Timestamp != ts {
		t.Error("id and timestamp must be assigned exactly once, at construction")
	}
}
