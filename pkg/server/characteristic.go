package server

import (
	"strings"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

func getAddrFromReq(req ble.Request) string {
	return strings.ToUpper(req.Conn().RemoteAddr().String())
}

var userDescriptionUUID = ble.UUID16(0x2901)

func newChar(uuid string, description string) *ble.Characteristic {
	c := ble.NewCharacteristic(ble.MustParse(uuid))
	c.NewDescriptor(userDescriptionUUID).SetValue([]byte(description))
	return c
}

func newWriteChar(server *BLEServer, uuid string, description string, onWrite func([]byte) error) *ble.Characteristic {
	c := newChar(uuid, description)
	c.HandleWrite(ble.WriteHandlerFunc(generateWriteHandler(server, uuid, onWrite)))
	return c
}

func newReadChar(server *BLEServer, uuid string, description string, load func() []byte) *ble.Characteristic {
	c := newChar(uuid, description)
	c.HandleRead(ble.ReadHandlerFunc(generateReadHandler(server, uuid, load)))
	return c
}

func attStatus(err error) ble.ATTError {
	if errors.Is(err, errInvalidLength) {
		return ble.ErrInvalAttrValueLen
	}
	return ble.ErrUnlikely
}

func generateWriteHandler(server *BLEServer, uuid string, onWrite func([]byte) error) func(req ble.Request, rsp ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		err := onWrite(req.Data())
		if err == nil {
			return
		}
		rsp.SetStatus(attStatus(err))
		addr := getAddrFromReq(req)
		server.logger.Warn().Err(err).Str("addr", addr).Str("char", uuid).Msg("rejected write")
		server.listener.OnInternalError(errors.Wrapf(err, "write to %s from %s", uuid, addr))
	}
}

// Every value fits a single ATT read, so blob reads at an offset are refused rather than
// being allowed to advance the response cursor a second time.
func generateReadHandler(server *BLEServer, uuid string, load func() []byte) func(req ble.Request, rsp ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		if req.Offset() != 0 {
			rsp.SetStatus(ble.ErrAttrNotLong)
			server.listener.OnInternalError(errors.Errorf("blob read of %s at offset %d from %s", uuid, req.Offset(), getAddrFromReq(req)))
			return
		}
		if _, err := rsp.Write(load()); err != nil {
			rsp.SetStatus(ble.ErrUnlikely)
			server.listener.OnInternalError(errors.Wrapf(err, "read of %s from %s", uuid, getAddrFromReq(req)))
		}
	}
}
