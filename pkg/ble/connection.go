package ble

import (
	"context"
	"sync"

	"github.com/Krajiyah/ble-spp/pkg/models"
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/go-ble/ble"
	"github.com/rs/zerolog"
)

// Connection is a client side link to a transfer server. ReadValue and WriteValue
// address the server's characteristics by uuid.
type Connection interface {
	GetConnectedAddr() string
	Dial(context.Context, string) error
	Connect(context.Context) error
	ReadValue(string) ([]byte, error)
	WriteValue(string, []byte) error
	Close() error
}

// RealConnection is the go-ble backed Connection
type RealConnection struct {
	connectedAddr   string
	config          ConnectionConfig
	cln             GattClient
	methods         CoreMethods
	characteristics map[string]*ble.Characteristic
	connectionMutex *sync.Mutex
	ioMutex         *sync.Mutex
	listener        models.BLEClientListener
	logger          zerolog.Logger
}

// NewRealConnection sets up the default go-ble device and returns an unconnected connection
func NewRealConnection(config ConnectionConfig, listener models.BLEClientListener, logger zerolog.Logger) (*RealConnection, error) {
	return newRealConnection(config, listener, logger, NewCoreMethods())
}

func newRealConnection(config ConnectionConfig, listener models.BLEClientListener, logger zerolog.Logger, methods CoreMethods) (*RealConnection, error) {
	if config.MTU <= 0 {
		config.MTU = util.MTU
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = util.ChunkSize
	}
	c := &RealConnection{
		config: config, methods: methods,
		characteristics: map[string]*ble.Characteristic{},
		connectionMutex: &sync.Mutex{}, ioMutex: &sync.Mutex{},
		listener: listener, logger: logger,
	}
	if err := methods.SetDefaultDevice(config.ConnectTimeout); err != nil {
		return nil, err
	}
	return c, nil
}

// GetConnectedAddr returns the address of the connected server, or "" when disconnected
func (c *RealConnection) GetConnectedAddr() string {
	c.connectionMutex.Lock()
	defer c.connectionMutex.Unlock()
	return c.connectedAddr
}

// Dial connects to the server at addr
func (c *RealConnection) Dial(ctx context.Context, addr string) error {
	return c.wrapConnectOrDial(ctx, "Dial", func(ctx context.Context) (GattClient, string, error) {
		cln, err := c.methods.Dial(ctx, ble.NewAddr(addr))
		return cln, addr, err
	})
}

// Connect scans for any server advertising the transfer service and connects to the first one
func (c *RealConnection) Connect(ctx context.Context) error {
	return c.wrapConnectOrDial(ctx, "Connect", func(ctx context.Context) (GattClient, string, error) {
		var addr string
		cln, err := c.methods.Connect(ctx, func(a ble.Advertisement) bool {
			if !HasTransferService(a) {
				return false
			}
			addr = a.Addr().String()
			return true
		})
		return cln, addr, err
	})
}

// Close drops the current link, if any
func (c *RealConnection) Close() error {
	c.connectionMutex.Lock()
	defer c.connectionMutex.Unlock()
	if c.cln == nil {
		return nil
	}
	err := c.cln.CancelConnection()
	c.cln = nil
	c.connectedAddr = ""
	return err
}

// HasTransferService tells whether an advertisement announces the transfer service
func HasTransferService(a ble.Advertisement) bool {
	for _, service := range a.Services() {
		if util.UuidEqualStr(service, util.ServiceUUID) {
			return true
		}
	}
	return false
}
