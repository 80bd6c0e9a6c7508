package livekit

import (
	"context"
	"fmt"

	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/ghb-enzian/enzian-lib/messaging"
)

// RoomChannel publishes payloads over a room's data channel. It
// implements messaging.DataChannel.
type RoomChannel struct {
	room *lksdk.Room
}

var _ messaging.DataChannel = (*RoomChannel)(nil)

func NewRoomChannel(room *lksdk.Room) *RoomChannel {
	return &RoomChannel{room: room}
}

// Send publishes one payload under topic. Exactly one send per call;
// whether it is acknowledged end to end is the transport's business.
func (c *RoomChannel) Send(_ context.Context, payload []byte, topic string, reliable bool) error {
	err := c.room.LocalParticipant.PublishData(payload,
		lksdk.WithDataPublishTopic(topic),
		lksdk.WithDataPublishReliable(reliable),
	)
	if err != nil {
		return fmt.Errorf("publish data: %w", err)
	}
	return nil
}
