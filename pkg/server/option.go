package server

import (
	"time"

	"github.com/Krajiyah/ble-spp/pkg/ble"
	"github.com/Krajiyah/ble-spp/pkg/models"
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/rs/zerolog"
)

type options struct {
	logger        zerolog.Logger
	listener      models.BLEServerListener
	chunkSize     int
	deviceTimeout time.Duration
	methods       ble.CoreMethods
}

// Option configures a BLEServer
type Option func(*options)

// WithLogger sets the structured logger (default: disabled)
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithListener sets the listener notified of status changes, session transitions and internal errors
func WithListener(listener models.BLEServerListener) Option {
	return func(o *options) { o.listener = listener }
}

// WithChunkSize overrides util.ChunkSize for response chunks and the request chunk limit.
// Both peers must agree on it.
func WithChunkSize(size int) Option {
	return func(o *options) { o.chunkSize = size }
}

// WithDeviceTimeout sets the timeout handed to the go-ble device
func WithDeviceTimeout(timeout time.Duration) Option {
	return func(o *options) { o.deviceTimeout = timeout }
}

func withCoreMethods(methods ble.CoreMethods) Option {
	return func(o *options) { o.methods = methods }
}

type blankListener struct{}

func (blankListener) OnServerStatusChanged(models.BLEServerStatus, error) {}
func (blankListener) OnSessionStateChanged(string, models.SessionState)   {}
func (blankListener) OnInternalError(error)                               {}

func defaultOptions() options {
	return options{
		logger:        zerolog.Nop(),
		listener:      blankListener{},
		chunkSize:     util.ChunkSize,
		deviceTimeout: 5 * time.Second,
	}
}
