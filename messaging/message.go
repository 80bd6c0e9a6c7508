// Package messaging builds and publishes the standardized JSON event
// envelope exchanged between agent backends and clients.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies which side of the session produced a message.
type Source string

const (
	SourceAgent  Source = "agent"
	SourceClient Source = "client"
)

// EventHangup is the event name carried by hangup notices.
const EventHangup = "call.hangup"

// DefaultHangupReason is used when no reason is supplied.
const DefaultHangupReason = "agent_initiated"

// ErrEmptyEvent rejects construction of a message without an event name.
var ErrEmptyEvent = errors.New("event name must not be empty")

// Message is one standardized event. ID and Timestamp are assigned
// exactly once, at construction, and are never regenerated: a message
// may be serialized any number of times and always reads the same.
type Message struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Source    Source         `json:"source"`
	ID        string         `json:"id"`
	Timestamp float64        `json:"timestamp"`
}

type settings struct {
	source    Source
	id        string
	timestamp *float64
}

type Option func(*settings)

// WithSource overrides the default agent source.
func WithSource(s Source) Option {
	return func(o *settings) { o.source = s }
}

// WithID pins the identifier, for deterministic reconstruction.
func WithID(id string) Option {
	return func(o *settings) { o.id = id }
}

// WithTimestamp pins the timestamp (seconds since epoch), for
// deterministic reconstruction. Any pinned value is honored, zero
// included.
func WithTimestamp(ts float64) Option {
	return func(o *settings) { o.timestamp = &ts }
}

// New constructs a message for the given event. data may be nil; it is
// serialized as null. Unless pinned via options, the message receives a
// fresh UUID-v4 identifier and the current wall-clock timestamp.
func New(event string, data map[string]any, opts ...Option) (*Message, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}

	s := settings{source: SourceAgent}
	for _, opt := range opts {
		opt(&s)
	}

	m := &Message{
		Event:  event,
		Data:   data,
		Source: s.source,
		ID:     s.id,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if s.timestamp != nil {
		m.Timestamp = *s.timestamp
	} else {
		m.Timestamp = float64(time.Now().UnixNano()) / float64(time.Second)
	}
	return m, nil
}

// Hangup builds a call.hangup notice. An empty reason defaults to
// DefaultHangupReason. Common reasons: "agent_initiated",
// "user_requested", "timeout", "error".
func Hangup(reason string) *Message {
	if reason == "" {
		reason = DefaultHangupReason
	}
	m, _ := New(EventHangup, map[string]any{"reason": reason})
	return m
}

// ToMap returns the five envelope fields as a flat mapping. Pure and
// repeatable; a nil Data surfaces as a nil value under "data".
func (m *Message) ToMap() map[string]any {
	var data any
	if m.Data != nil {
		data = m.Data
	}
	return map[string]any{
		"event":     m.Event,
		"data":      data,
		"source":    string(m.Source),
		"id":        m.ID,
		"timestamp": m.Timestamp,
	}
}

// ToJSON encodes the message. All five keys are always present.
func (m *Message) ToJSON() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(b), nil
}
