package livekit

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/livekit/protocol/auth"
)

const tokenTTL = 24 * time.Hour

// TokenService signs participant access tokens for a single LiveKit
// deployment.
type TokenService struct {
	cfg *Config
}

// NewTokenService wraps cfg; a nil cfg falls back to the environment.
func NewTokenService(cfg *Config) *TokenService {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &TokenService{cfg: cfg}
}

// ParticipantToken signs a JWT that lets identity join roomName.
func (s *TokenService) ParticipantToken(roomName, identity string) (string, error) {
	if err := s.cfg.validateCredentials(); err != nil {
		return "", err
	}

	at := auth.NewAccessToken(s.cfg.APIKey, s.cfg.APISecret)

	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}

	at.SetIdentity(identity).
		SetValidFor(tokenTTL).
		SetVideoGrant(grant)

	return at.ToJWT()
}

// ConnectionDetails bundles what a client needs to join a room. The
// JSON shape matches what web frontends expect; the room name rides
// along for reference only and stays out of the payload.
type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	ParticipantToken string `json:"participantToken"`
	ParticipantName  string `json:"participantName"`
	RoomName         string `json:"-"`
}

// ConnectionDetails issues a token for roomName and bundles it with the
// server URL. An empty identity gets a random one.
func (s *TokenService) ConnectionDetails(roomName, identity string) (*ConnectionDetails, error) {
	if err := s.cfg.validateURL(); err != nil {
		return nil, err
	}

	if identity == "" {
		identity = fmt.Sprintf("voice_assistant_user_%d", rand.IntN(10000))
	}

	token, err := s.ParticipantToken(roomName, identity)
	if err != nil {
		return nil, err
	}

	return &ConnectionDetails{
		ServerURL:        s.cfg.URL,
		ParticipantToken: token,
		ParticipantName:  identity,
		RoomName:         roomName,
	}, nil
}
