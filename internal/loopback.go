package internal

import (
	"sync"

	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

// SlotHandler is the server side of the four transfer slots
type SlotHandler interface {
	WriteRequestLength([]byte) error
	WriteRequestData([]byte) error
	ReadResponseLength() []byte
	ReadResponseData() []byte
}

// Loopback is an in-memory transport that hands client slot operations straight to a
// server session, the way a GATT link would but without a radio.
type Loopback struct {
	Peer SlotHandler
	// BeforeOp runs before every operation with the slot uuid
	BeforeOp func(uuid string)
	// Fail makes operations on a slot fail with the given error
	Fail map[string]error
	// ReverseChunks buffers request chunks and delivers them last-first once the
	// announced length is reached
	ReverseChunks bool

	mutex    sync.Mutex
	writes   []Write
	reads    map[string]int
	expected int
	held     [][]byte
}

func NewLoopback(peer SlotHandler) *Loopback {
	return &Loopback{Peer: peer, Fail: map[string]error{}, reads: map[string]int{}}
}

func same(a, b string) bool { return ble.MustParse(a).Equal(ble.MustParse(b)) }

func (l *Loopback) before(uuid string) error {
	if l.BeforeOp != nil {
		l.BeforeOp(uuid)
	}
	for slot, err := range l.Fail {
		if same(slot, uuid) {
			return err
		}
	}
	return nil
}

// WriteValue implements the client transport write
func (l *Loopback) WriteValue(uuid string, data []byte) error {
	if err := l.before(uuid); err != nil {
		return err
	}
	l.mutex.Lock()
	l.writes = append(l.writes, Write{uuid, append([]byte{}, data...)})
	l.mutex.Unlock()
	switch {
	case same(uuid, util.RequestLengthUUID):
		n, err := util.DecodeLength(data)
		if err == nil {
			l.expected = int(n)
			l.held = nil
		}
		return l.Peer.WriteRequestLength(data)
	case same(uuid, util.RequestDataUUID):
		if !l.ReverseChunks {
			return l.Peer.WriteRequestData(data)
		}
		l.held = append(l.held, append([]byte{}, data...))
		if len(util.Join(l.held)) < l.expected {
			return nil
		}
		for i := len(l.held) - 1; i >= 0; i-- {
			if err := l.Peer.WriteRequestData(l.held[i]); err != nil {
				return err
			}
		}
		l.held = nil
		return nil
	}
	return errors.Errorf("slot %s is not writable", uuid)
}

// ReadValue implements the client transport read
func (l *Loopback) ReadValue(uuid string) ([]byte, error) {
	if err := l.before(uuid); err != nil {
		return nil, err
	}
	l.mutex.Lock()
	l.reads[uuid]++
	l.mutex.Unlock()
	switch {
	case same(uuid, util.ResponseLengthUUID):
		return l.Peer.ReadResponseLength(), nil
	case same(uuid, util.ResponseDataUUID):
		return l.Peer.ReadResponseData(), nil
	}
	return nil, errors.Errorf("slot %s is not readable", uuid)
}

// Writes returns the writes made to uuid, in order
func (l *Loopback) Writes(uuid string) [][]byte {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	ret := [][]byte{}
	for _, w := range l.writes {
		if same(w.UUID, uuid) {
			ret = append(ret, w.Data)
		}
	}
	return ret
}

// Reads returns how many reads were made of uuid
func (l *Loopback) Reads(uuid string) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.reads[uuid]
}
