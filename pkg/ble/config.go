package ble

import (
	"time"

	"github.com/Krajiyah/ble-spp/pkg/util"
)

// BackoffConfig defines retry backoff behavior for connection attempts
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// ConnectionConfig defines how a client reaches a server
type ConnectionConfig struct {
	// ConnectTimeout bounds a single dial/scan attempt
	ConnectTimeout time.Duration
	// MaxAttempts is the number of dial/scan attempts before giving up
	MaxAttempts int
	Backoff     BackoffConfig
	// MTU is the ATT MTU requested from the server after connecting
	MTU int
	// ChunkSize is the chunk size the link must carry in one write
	ChunkSize int
}

// DefaultConnectionConfig returns the defaults used by the example programs
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout: 10 * time.Second,
		MaxAttempts:    5,
		MTU:            util.MTU,
		ChunkSize:      util.ChunkSize,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
