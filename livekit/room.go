package livekit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lkproto "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

const (
	defaultMaxParticipants = 10
	defaultEmptyTimeout    = 10 * time.Minute
)

// RoomOptions tune room creation. Zero values select the defaults:
// 10 participants, 10 minute empty timeout.
type RoomOptions struct {
	MaxParticipants uint32
	EmptyTimeout    time.Duration
}

// normalized applies the defaults. A non-positive empty timeout falls
// back to the default rather than wrapping in the uint32 conversion.
func (o *RoomOptions) normalized() (maxParticipants uint32, emptyTimeout time.Duration) {
	maxParticipants = o.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = defaultMaxParticipants
	}
	emptyTimeout = o.EmptyTimeout
	if emptyTimeout <= 0 {
		emptyTimeout = defaultEmptyTimeout
	}
	return maxParticipants, emptyTimeout
}

// RoomService drives the room lifecycle on the LiveKit control plane.
// No retry or backoff is layered on top of the SDK client.
type RoomService struct {
	client *lksdk.RoomServiceClient
	log    *slog.Logger
}

// NewRoomService builds a control-plane client from cfg. A nil cfg
// falls back to the environment, a nil logger to slog.Default.
func NewRoomService(cfg *Config, logger *slog.Logger) (*RoomService, error) {
	if cfg == nil {
		cfg = LoadConfig()
	}
	if err := cfg.validateURL(); err != nil {
		return nil, err
	}
	if err := cfg.validateCredentials(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RoomService{
		client: lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret),
		log:    logger,
	}, nil
}

// CreateRoom creates name on the server and returns its descriptor.
func (s *RoomService) CreateRoom(ctx context.Context, name string, opts *RoomOptions) (*lkproto.Room, error) {
	if opts == nil {
		opts = &RoomOptions{}
	}
	maxParticipants, emptyTimeout := opts.normalized()

	room, err := s.client.CreateRoom(ctx, &lkproto.CreateRoomRequest{
		Name:            name,
		EmptyTimeout:    uint32(emptyTimeout / time.Second),
		MaxParticipants: maxParticipants,
	})
	if err != nil {
		return nil, fmt.Errorf("create room %q: %w", name, err)
	}

	s.log.Info("room created", "room", name, "max_participants", maxParticipants)
	return room, nil
}

// DeleteRoom removes name from the server, disconnecting any
// remaining participants.
func (s *RoomService) DeleteRoom(ctx context.Context, name string) error {
	if _, err := s.client.DeleteRoom(ctx, &lkproto.DeleteRoomRequest{Room: name}); err != nil {
		return fmt.Errorf("delete room %q: %w", name, err)
	}

	s.log.Info("room deleted", "room", name)
	return nil
}

// ConnectParticipant signs a token for identity and joins roomName as a
// realtime participant. The returned room must be disconnected by the
// caller.
func ConnectParticipant(cfg *Config, roomName, identity string, cb *lksdk.RoomCallback) (*lksdk.Room, error) {
	if cfg == nil {
		cfg = LoadConfig()
	}
	if err := cfg.validateURL(); err != nil {
		return nil, err
	}

	token, err := NewTokenService(cfg).ParticipantToken(roomName, identity)
	if err != nil {
		return nil, err
	}

	room, err := lksdk.ConnectToRoomWithToken(cfg.URL, token, cb)
	if err != nil {
		return nil, fmt.Errorf("connect to room %q: %w", roomName, err)
	}
	return room, nil
}
