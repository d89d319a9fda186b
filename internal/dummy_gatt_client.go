package internal

import (
	"sync"

	"github.com/go-ble/ble"
)

// Write is one recorded characteristic write
type Write struct {
	UUID string
	Data []byte
}

// DummyGattClient stands in for a connected ble.Client. Reads are answered from
// per-characteristic queues, writes are recorded.
type DummyGattClient struct {
	mutex        sync.Mutex
	reads        map[string][][]byte
	writes       []Write
	services     []*ble.Service
	ReadErr      error
	WriteErr     error
	MTU          int
	RequestedMTU int
	Cancelled    int
	disconnected chan struct{}
}

func NewDummyGattClient(charUUIDs []string) *DummyGattClient {
	return &DummyGattClient{
		reads:        map[string][][]byte{},
		services:     GetTestServices(charUUIDs),
		MTU:          256,
		disconnected: make(chan struct{}),
	}
}

func key(uuid string) string { return ble.MustParse(uuid).String() }

// QueueRead makes the next read of uuid return data
func (c *DummyGattClient) QueueRead(uuid string, data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.reads[key(uuid)] = append(c.reads[key(uuid)], data)
}

// Writes returns every write so far
func (c *DummyGattClient) Writes() []Write {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]Write{}, c.writes...)
}

// Disconnect simulates the peer dropping the link
func (c *DummyGattClient) Disconnect() { close(c.disconnected) }

func (c *DummyGattClient) ReadCharacteristic(char *ble.Characteristic) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.ReadErr != nil {
		return nil, c.ReadErr
	}
	k := char.UUID.String()
	queued := c.reads[k]
	if len(queued) == 0 {
		return []byte{}, nil
	}
	c.reads[k] = queued[1:]
	return queued[0], nil
}

func (c *DummyGattClient) WriteCharacteristic(char *ble.Characteristic, value []byte, noRsp bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.writes = append(c.writes, Write{char.UUID.String(), append([]byte{}, value...)})
	return nil
}

func (c *DummyGattClient) ExchangeMTU(rxMTU int) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.RequestedMTU = rxMTU
	return c.MTU, nil
}

func (c *DummyGattClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	return &ble.Profile{Services: c.services}, nil
}

func (c *DummyGattClient) CancelConnection() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Cancelled++
	return nil
}

func (c *DummyGattClient) Disconnected() <-chan struct{} { return c.disconnected }
