// Package livekit wraps the LiveKit server and client SDKs: token
// issuance, room lifecycle, participant connection, data publishing and
// audio track publishing.
package livekit

import (
	"errors"
	"os"
)

const (
	envURL       = "LIVEKIT_URL"
	envAPIKey    = "LIVEKIT_API_KEY"
	envAPISecret = "LIVEKIT_API_SECRET"
)

var (
	ErrMissingURL         = errors.New("livekit server url must be provided via config or LIVEKIT_URL")
	ErrMissingCredentials = errors.New("livekit api key and secret must be provided via config or LIVEKIT_API_KEY/LIVEKIT_API_SECRET")
)

// Config carries everything needed to reach a LiveKit deployment. It is
// passed explicitly to the services in this package; nothing here reads
// the environment after construction.
type Config struct {
	URL       string
	APIKey    string
	APISecret string
}

// LoadConfig builds a Config from the standard LIVEKIT_* environment
// variables. Missing values stay empty and are reported by the service
// that needs them.
func LoadConfig() *Config {
	return &Config{
		URL:       getEnv(envURL, ""),
		APIKey:    getEnv(envAPIKey, ""),
		APISecret: getEnv(envAPISecret, ""),
	}
}

func (c *Config) validateURL() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	return nil
}

func (c *Config) validateCredentials() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
