package internal

import (
	"bytes"
	"context"

	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/go-ble/ble"
)

const DummyAddress = "11:22:33:44:55:66"

// MockConn is a ble.Conn for driving server characteristic handlers
type MockConn struct {
	Ctx context.Context
}

func NewMockConn() *MockConn { return &MockConn{Ctx: context.Background()} }

func (c *MockConn) Context() context.Context          { return c.Ctx }
func (c *MockConn) SetContext(ctx context.Context)    { c.Ctx = ctx }
func (c *MockConn) LocalAddr() ble.Addr               { return ble.NewAddr(DummyAddress) }
func (c *MockConn) RemoteAddr() ble.Addr              { return ble.NewAddr(DummyAddress) }
func (c *MockConn) RxMTU() int                        { return util.MTU }
func (c *MockConn) SetRxMTU(mtu int)                  {}
func (c *MockConn) TxMTU() int                        { return util.MTU }
func (c *MockConn) SetTxMTU(mtu int)                  {}
func (c *MockConn) ReadRSSI() int                     { return 0 }
func (c *MockConn) Disconnected() <-chan struct{}     { return make(chan struct{}) }
func (c *MockConn) Read(p []byte) (n int, err error)  { return 0, nil }
func (c *MockConn) Write(p []byte) (n int, err error) { return 0, nil }
func (c *MockConn) Close() error                      { return nil }

// MockRspWriter is a ble.ResponseWriter capturing what a read/write handler answered
type MockRspWriter struct {
	buff   *bytes.Buffer
	status ble.ATTError
}

func NewMockRspWriter() *MockRspWriter {
	return &MockRspWriter{buff: bytes.NewBuffer([]byte{}), status: ble.ErrSuccess}
}

func (rw *MockRspWriter) ReadAll() []byte               { return rw.buff.Bytes() }
func (rw *MockRspWriter) Write(b []byte) (int, error)   { return rw.buff.Write(b) }
func (rw *MockRspWriter) Status() ble.ATTError          { return rw.status }
func (rw *MockRspWriter) SetStatus(status ble.ATTError) { rw.status = status }
func (rw *MockRspWriter) Len() int                      { return rw.buff.Len() }
func (rw *MockRspWriter) Cap() int                      { return util.MTU }

// NewMockReq builds a request as go-ble would hand it to a handler
func NewMockReq(data []byte) ble.Request {
	return ble.NewRequest(NewMockConn(), data, 0)
}
