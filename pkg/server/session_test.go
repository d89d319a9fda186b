package server

import (
	"bytes"
	"sync"
	"testing"

	"github.com/Krajiyah/ble-spp/pkg/models"
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gotest.tools/assert"
)

func echo(request []byte) ([]byte, error) { return request, nil }

func newTestSession(handler Handler) *Session {
	return newSession(handler, util.ChunkSize, zerolog.Nop())
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func send(t *testing.T, s *Session, message []byte) {
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(int32(len(message)))))
	for _, chunk := range util.Split(message, util.ChunkSize) {
		assert.NilError(t, s.WriteRequestData(chunk))
	}
}

func readResponseLength(t *testing.T, s *Session) int32 {
	n, err := util.DecodeLength(s.ReadResponseLength())
	assert.NilError(t, err)
	return n
}

func drain(s *Session) [][]byte {
	chunks := [][]byte{}
	for {
		chunk := s.ReadResponseData()
		if len(chunk) == 0 {
			return chunks
		}
		chunks = append(chunks, chunk)
	}
}

type stateRecorder struct {
	mutex  sync.Mutex
	states []models.SessionState
}

func (r *stateRecorder) record(_ string, state models.SessionState) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.states = append(r.states, state)
}

func TestIdlePollIsIdempotent(t *testing.T) {
	s := newTestSession(echo)
	for i := 0; i < 5; i++ {
		assert.Equal(t, readResponseLength(t, s), util.NoMessage)
		assert.Equal(t, len(s.ReadResponseData()), 0)
	}
	assert.Equal(t, s.State(), models.Idle)
	assert.Equal(t, s.TransferID(), "")
}

func TestEmptyRequestInvokesHandlerImmediately(t *testing.T) {
	var got []byte
	calls := 0
	s := newTestSession(func(request []byte) ([]byte, error) {
		calls++
		got = request
		return []byte("pong"), nil
	})
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(0)))
	assert.Equal(t, calls, 1)
	assert.Equal(t, len(got), 0)
	assert.Assert(t, got != nil)
	assert.Equal(t, s.State(), models.Ready)
	assert.Equal(t, readResponseLength(t, s), int32(4))
	assert.DeepEqual(t, s.ReadResponseData(), []byte("pong"))
	assert.Equal(t, s.State(), models.Draining)
	assert.Equal(t, len(s.ReadResponseData()), 0)
}

func TestEmptyResponse(t *testing.T) {
	s := newTestSession(func([]byte) ([]byte, error) { return nil, nil })
	send(t, s, []byte("hello"))
	assert.Equal(t, readResponseLength(t, s), int32(0))
	assert.Equal(t, len(s.ReadResponseData()), 0)
	assert.Equal(t, s.State(), models.Ready)
}

func TestLargeTransferRoundTrip(t *testing.T) {
	message := pattern(10000)
	s := newTestSession(echo)
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(int32(len(message)))))
	chunks := util.Split(message, util.ChunkSize)
	assert.Equal(t, len(chunks), 40)
	for i, chunk := range chunks {
		assert.Equal(t, readResponseLength(t, s), util.NoMessage)
		assert.NilError(t, s.WriteRequestData(chunk))
		if i < len(chunks)-1 {
			assert.Equal(t, s.State(), models.Accumulating)
		}
	}
	assert.Equal(t, readResponseLength(t, s), int32(10000))
	out := drain(s)
	assert.Equal(t, len(out), 40)
	for _, chunk := range out[:39] {
		assert.Equal(t, len(chunk), util.ChunkSize)
	}
	assert.Assert(t, bytes.Equal(util.Join(out), message))
	// the length is still reported once drained
	assert.Equal(t, readResponseLength(t, s), int32(10000))
}

func TestResponseIsCopiedFromHandler(t *testing.T) {
	shared := []byte("abc")
	s := newTestSession(func([]byte) ([]byte, error) { return shared, nil })
	send(t, s, []byte("x"))
	shared[0] = 'z'
	assert.DeepEqual(t, s.ReadResponseData(), []byte("abc"))
}

func TestNewDescriptorResetsSession(t *testing.T) {
	var got []byte
	s := newTestSession(func(request []byte) ([]byte, error) {
		got = request
		return request, nil
	})
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(600)))
	assert.NilError(t, s.WriteRequestData(pattern(util.ChunkSize)))
	first := s.TransferID()

	send(t, s, []byte("second"))
	assert.Assert(t, s.TransferID() != first)
	assert.DeepEqual(t, got, []byte("second"))
	assert.Equal(t, readResponseLength(t, s), int32(6))
}

func TestNewDescriptorDropsUndrainedResponse(t *testing.T) {
	s := newTestSession(echo)
	send(t, s, pattern(600))
	assert.Equal(t, len(s.ReadResponseData()), util.ChunkSize)
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(3)))
	assert.Equal(t, readResponseLength(t, s), util.NoMessage)
	assert.Equal(t, len(s.ReadResponseData()), 0)
	assert.NilError(t, s.WriteRequestData([]byte("abc")))
	assert.DeepEqual(t, drain(s), [][]byte{[]byte("abc")})
}

func TestOutOfOrderChunksCorruptRequest(t *testing.T) {
	message := pattern(600)
	var got []byte
	s := newTestSession(func(request []byte) ([]byte, error) {
		got = request
		return nil, nil
	})
	chunks := util.Split(message, util.ChunkSize)
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(int32(len(message)))))
	for i := len(chunks) - 1; i >= 0; i-- {
		assert.NilError(t, s.WriteRequestData(chunks[i]))
	}
	assert.Equal(t, len(got), len(message))
	assert.Assert(t, !bytes.Equal(got, message))
}

func TestHandlerError(t *testing.T) {
	var reported error
	s := newTestSession(func([]byte) ([]byte, error) { return nil, errors.New("boom") })
	s.onError = func(err error) { reported = err }
	send(t, s, []byte("hi"))
	assert.Equal(t, s.State(), models.Failed)
	assert.Equal(t, readResponseLength(t, s), util.HandlerFailed)
	assert.Equal(t, len(s.ReadResponseData()), 0)
	assert.ErrorContains(t, reported, "boom")
}

func TestHandlerPanic(t *testing.T) {
	s := newTestSession(func([]byte) ([]byte, error) { panic("kaput") })
	send(t, s, []byte("hi"))
	assert.Equal(t, s.State(), models.Failed)
	assert.Equal(t, readResponseLength(t, s), util.HandlerFailed)

	// the session recovers on the next descriptor
	s.handler = echo
	send(t, s, []byte("again"))
	assert.Equal(t, readResponseLength(t, s), int32(5))
}

func TestOverflowResetsToIdle(t *testing.T) {
	s := newTestSession(echo)
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(4)))
	err := s.WriteRequestData([]byte("too long"))
	assert.Assert(t, errors.Is(err, models.ErrProtocol))
	assert.Assert(t, errors.Is(err, errOverflow))
	assert.Equal(t, s.State(), models.Idle)
	assert.Equal(t, readResponseLength(t, s), util.NoMessage)
}

func TestBadDescriptor(t *testing.T) {
	s := newTestSession(echo)
	err := s.WriteRequestLength([]byte{1, 2, 3})
	assert.Assert(t, errors.Is(err, models.ErrProtocol))
	assert.Assert(t, errors.Is(err, errInvalidLength))

	err = s.WriteRequestLength(util.EncodeLength(-5))
	assert.Assert(t, errors.Is(err, models.ErrProtocol))
	assert.Equal(t, s.State(), models.Idle)
}

func TestChunkOutsideTransfer(t *testing.T) {
	s := newTestSession(echo)
	err := s.WriteRequestData([]byte("stray"))
	assert.Assert(t, errors.Is(err, errNoTransfer))

	send(t, s, []byte("done"))
	err = s.WriteRequestData([]byte("late"))
	assert.Assert(t, errors.Is(err, errNoTransfer))
	assert.Equal(t, s.State(), models.Ready)
}

func TestInvalidChunkLength(t *testing.T) {
	s := newTestSession(echo)
	assert.NilError(t, s.WriteRequestLength(util.EncodeLength(1000)))
	assert.Assert(t, errors.Is(s.WriteRequestData(pattern(util.ChunkSize+1)), errInvalidLength))
	assert.Assert(t, errors.Is(s.WriteRequestData([]byte{}), errInvalidLength))
	assert.Equal(t, s.State(), models.Accumulating)
}

func TestSupersededWhileHandling(t *testing.T) {
	var s *Session
	s = newTestSession(func(request []byte) ([]byte, error) {
		if string(request) == "first" {
			assert.Equal(t, s.State(), models.Handling)
			assert.Equal(t, readResponseLength(t, s), util.NoMessage)
			assert.NilError(t, s.WriteRequestLength(util.EncodeLength(6)))
		}
		return request, nil
	})
	send(t, s, []byte("first"))
	assert.Equal(t, s.State(), models.Accumulating)
	assert.Equal(t, readResponseLength(t, s), util.NoMessage)

	assert.NilError(t, s.WriteRequestData([]byte("second")))
	assert.DeepEqual(t, drain(s), [][]byte{[]byte("second")})
}

func TestStateTransitions(t *testing.T) {
	recorder := &stateRecorder{}
	s := newTestSession(echo)
	s.onState = recorder.record
	send(t, s, pattern(300))
	drain(s)
	assert.DeepEqual(t, recorder.states, []models.SessionState{
		models.Accumulating, models.Complete, models.Handling, models.Ready, models.Draining,
	})
}
