package client

import (
	"time"

	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/rs/zerolog"
)

// DefaultPollInterval is the pause between response-length reads
const DefaultPollInterval = 100 * time.Millisecond

type options struct {
	logger       zerolog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
	chunkSize    int
}

// Option configures a BLEClient
type Option func(*options)

// WithLogger sets the structured logger (default: disabled)
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPollInterval sets the pause between response-length reads; zero polls back to back
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) { o.pollInterval = interval }
}

// WithPollTimeout bounds how long a transfer waits for the server to answer; zero waits
// until the caller's context is done
func WithPollTimeout(timeout time.Duration) Option {
	return func(o *options) { o.pollTimeout = timeout }
}

// WithChunkSize overrides util.ChunkSize for request chunks. Both peers must agree on it.
func WithChunkSize(size int) Option {
	return func(o *options) { o.chunkSize = size }
}

func defaultOptions() options {
	return options{
		logger:       zerolog.Nop(),
		pollInterval: DefaultPollInterval,
		chunkSize:    util.ChunkSize,
	}
}
