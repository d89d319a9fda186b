package internal

import (
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/go-ble/ble"
)

type DummyAdv struct {
	Address    ble.Addr
	Rssi       int
	NonService bool
}

func (a DummyAdv) LocalName() string              { return "" }
func (a DummyAdv) ManufacturerData() []byte       { return nil }
func (a DummyAdv) ServiceData() []ble.ServiceData { return nil }
func (a DummyAdv) Services() []ble.UUID {
	if a.NonService {
		return nil
	}
	return GetTestServiceUUIDs()
}
func (a DummyAdv) OverflowService() []ble.UUID  { return nil }
func (a DummyAdv) TxPowerLevel() int            { return 0 }
func (a DummyAdv) Connectable() bool            { return true }
func (a DummyAdv) SolicitedService() []ble.UUID { return nil }
func (a DummyAdv) RSSI() int                    { return a.Rssi }
func (a DummyAdv) Addr() ble.Addr               { return a.Address }

func GetTestServiceUUIDs() []ble.UUID {
	return []ble.UUID{ble.MustParse(util.ServiceUUID)}
}

// GetTestServices returns a discovered profile holding the transfer service with the given characteristics
func GetTestServices(charUUIDs []string) []*ble.Service {
	chars := []*ble.Characteristic{}
	for _, uuid := range charUUIDs {
		chars = append(chars, ble.NewCharacteristic(ble.MustParse(uuid)))
	}
	return []*ble.Service{{UUID: ble.MustParse(util.ServiceUUID), Characteristics: chars}}
}
