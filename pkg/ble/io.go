package ble

import (
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

func (c *RealConnection) getCharacteristic(uuid string) (GattClient, *ble.Characteristic, error) {
	c.connectionMutex.Lock()
	defer c.connectionMutex.Unlock()
	if c.cln == nil {
		return nil, nil, errors.New("not connected")
	}
	if char, ok := c.characteristics[uuid]; ok {
		return c.cln, char, nil
	}
	return nil, nil, errors.Errorf("no such uuid (%s) in characteristics advertised from server", uuid)
}

// ReadValue issues one attribute read. It is never retried: a response-data read
// advances the server's cursor whether or not the reply makes it back.
func (c *RealConnection) ReadValue(uuid string) ([]byte, error) {
	c.ioMutex.Lock()
	defer c.ioMutex.Unlock()
	cln, char, err := c.getCharacteristic(uuid)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = util.CatchErrs(func() error {
		var e error
		data, e = cln.ReadCharacteristic(char)
		return e
	})
	if err != nil {
		return nil, errors.Wrap(err, "ReadCharacteristic issue")
	}
	return data, nil
}

// WriteValue issues one acknowledged attribute write and waits for it to complete
func (c *RealConnection) WriteValue(uuid string, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty data to write")
	}
	c.ioMutex.Lock()
	defer c.ioMutex.Unlock()
	cln, char, err := c.getCharacteristic(uuid)
	if err != nil {
		return err
	}
	err = util.CatchErrs(func() error {
		return cln.WriteCharacteristic(char, data, false)
	})
	return errors.Wrap(err, "WriteCharacteristic issue")
}
