package ble

import (
	"context"
	"time"

	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
)

// GattClient is the part of ble.Client a connection drives
type GattClient interface {
	ReadCharacteristic(*ble.Characteristic) ([]byte, error)
	WriteCharacteristic(*ble.Characteristic, []byte, bool) error
	ExchangeMTU(int) (int, error)
	DiscoverProfile(bool) (*ble.Profile, error)
	CancelConnection() error
	Disconnected() <-chan struct{}
}

// CoreMethods are the process wide go-ble operations used by clients and servers
type CoreMethods interface {
	SetDefaultDevice(time.Duration) error
	Stop() error
	Connect(context.Context, ble.AdvFilter) (GattClient, error)
	Dial(context.Context, ble.Addr) (GattClient, error)
	AddService(*ble.Service) error
	AdvertiseNameAndServices(context.Context, string, ...ble.UUID) error
}

type realCoreMethods struct{}

// NewCoreMethods returns CoreMethods backed by the default go-ble device
func NewCoreMethods() CoreMethods { return &realCoreMethods{} }

func (bc *realCoreMethods) Connect(ctx context.Context, f ble.AdvFilter) (GattClient, error) {
	var client GattClient
	err := util.CatchErrs(func() error {
		c, e := ble.Connect(ctx, f)
		if e != nil {
			return e
		}
		client = c
		return nil
	})
	return client, err
}

func (bc *realCoreMethods) Dial(ctx context.Context, addr ble.Addr) (GattClient, error) {
	var client GattClient
	err := util.CatchErrs(func() error {
		c, e := ble.Dial(ctx, addr)
		if e != nil {
			return e
		}
		client = c
		return nil
	})
	return client, err
}

func (bc *realCoreMethods) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	return util.CatchErrs(func() error {
		return ble.AdvertiseNameAndServices(ctx, name, uuids...)
	})
}

func (bc *realCoreMethods) AddService(s *ble.Service) error {
	return util.CatchErrs(func() error {
		return ble.AddService(s)
	})
}

func (bc *realCoreMethods) Stop() error {
	return util.CatchErrs(ble.Stop)
}

func (bc *realCoreMethods) SetDefaultDevice(timeout time.Duration) error {
	opts := []ble.Option{
		ble.OptDialerTimeout(timeout), // client to server timeout
	}
	device, err := linux.NewDevice(opts...)
	if err != nil {
		return errors.Wrap(err, "newLinuxDevice issue")
	}
	ble.SetDefaultDevice(device)
	return nil
}
