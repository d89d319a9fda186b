package server

import (
	"math"
	"sync"

	"github.com/Krajiyah/ble-spp/pkg/models"
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/golang-collections/go-datastructures/queue"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler produces the response for one fully reassembled request.
// A returned error (or a panic) is published to the client as a failed transfer.
type Handler func(request []byte) ([]byte, error)

var (
	errInvalidLength = errors.New("invalid attribute value length")
	errNoTransfer    = errors.New("no transfer in progress")
	errOverflow      = errors.New("request chunks exceed announced length")
)

type sessionEvent struct {
	transferID string
	state      models.SessionState
}

// Session is the single request/response exchange a server holds.
// Every request-length write starts a new transfer and drops whatever the previous one
// left behind, so a second client writing a descriptor pre-empts the first.
type Session struct {
	mutex       sync.Mutex
	handler     Handler
	chunkSize   int
	state       models.SessionState
	transferID  string
	expected    int
	accumulated int
	request     []byte
	respLength  int32
	chunks      *queue.Queue
	cursor      int
	pending     []sessionEvent
	logger      zerolog.Logger
	onState     func(string, models.SessionState)
	onError     func(error)
}

func newSession(handler Handler, chunkSize int, logger zerolog.Logger) *Session {
	return &Session{
		handler: handler, chunkSize: chunkSize,
		state: models.Idle, respLength: util.NoMessage,
		logger: logger,
	}
}

func protocolError(op string, err error) error {
	return models.NewTransferError(models.Protocol, op, err)
}

// State returns the current session state
func (s *Session) State() models.SessionState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// TransferID returns the id of the transfer started by the last request-length write
func (s *Session) TransferID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.transferID
}

// must hold mutex
func (s *Session) transition(state models.SessionState) {
	s.state = state
	s.pending = append(s.pending, sessionEvent{s.transferID, state})
}

func (s *Session) unlockAndNotify() {
	events := s.pending
	s.pending = nil
	s.mutex.Unlock()
	if s.onState == nil {
		return
	}
	for _, e := range events {
		s.onState(e.transferID, e.state)
	}
}

// must hold mutex
func (s *Session) reset() {
	if s.chunks != nil {
		s.chunks.Dispose()
	}
	s.chunks = nil
	s.request = nil
	s.expected = 0
	s.accumulated = 0
	s.respLength = util.NoMessage
	s.cursor = 0
}

// WriteRequestLength handles a write to the request-length slot
func (s *Session) WriteRequestLength(data []byte) error {
	n, err := util.DecodeLength(data)
	if err != nil {
		return protocolError("write request length", errors.Wrap(errInvalidLength, err.Error()))
	}
	if n < 0 {
		return protocolError("write request length", errors.Errorf("negative request length %d", n))
	}
	s.mutex.Lock()
	if s.state != models.Idle && s.transferID != "" {
		s.logger.Debug().Str("transfer", s.transferID).Stringer("state", s.state).Msg("transfer superseded")
	}
	s.reset()
	s.transferID = uuid.New().String()
	s.expected = int(n)
	s.request = []byte{}
	s.transition(models.Accumulating)
	s.logger.Debug().Str("transfer", s.transferID).Int("expected", s.expected).Msg("request announced")
	if s.expected == 0 {
		s.complete()
		return nil
	}
	s.unlockAndNotify()
	return nil
}

// WriteRequestData handles a write to the request-data slot
func (s *Session) WriteRequestData(chunk []byte) error {
	if len(chunk) == 0 || len(chunk) > s.chunkSize {
		return protocolError("write request chunk", errors.Wrapf(errInvalidLength, "chunk of %d bytes", len(chunk)))
	}
	s.mutex.Lock()
	if s.state != models.Accumulating {
		state := s.state
		s.mutex.Unlock()
		return protocolError("write request chunk", errors.Wrapf(errNoTransfer, "session is %s", state))
	}
	if s.accumulated+len(chunk) > s.expected {
		err := errors.Wrapf(errOverflow, "%d + %d > %d", s.accumulated, len(chunk), s.expected)
		s.reset()
		s.transition(models.Idle)
		s.unlockAndNotify()
		return protocolError("write request chunk", err)
	}
	s.request = append(s.request, chunk...)
	s.accumulated += len(chunk)
	if s.accumulated == s.expected {
		s.complete()
		return nil
	}
	s.unlockAndNotify()
	return nil
}

// complete runs the handler for the reassembled request. Called with the mutex held;
// returns with it released. The handler runs unlocked so response-length reads keep
// answering with the sentinel while it works.
func (s *Session) complete() {
	s.transition(models.Complete)
	s.transition(models.Handling)
	id, request := s.transferID, s.request
	s.request = nil
	s.unlockAndNotify()

	var response []byte
	err := util.CatchErrs(func() error {
		var e error
		response, e = s.handler(request)
		return e
	})
	if err == nil && len(response) > math.MaxInt32 {
		err = errors.Errorf("response of %d bytes does not fit a length descriptor", len(response))
	}

	s.mutex.Lock()
	if s.transferID != id {
		s.logger.Debug().Str("transfer", id).Msg("dropping response of superseded transfer")
		s.unlockAndNotify()
		return
	}
	if err != nil {
		s.respLength = util.HandlerFailed
		s.transition(models.Failed)
		s.unlockAndNotify()
		s.logger.Error().Err(err).Str("transfer", id).Msg("handler failed")
		if s.onError != nil {
			s.onError(errors.Wrapf(err, "handler failed for transfer %s", id))
		}
		return
	}
	response = append([]byte{}, response...)
	chunks := util.Split(response, s.chunkSize)
	s.chunks = queue.New(int64(len(chunks)))
	for _, c := range chunks {
		s.chunks.Put(c)
	}
	s.respLength = int32(len(response))
	s.cursor = 0
	s.transition(models.Ready)
	s.logger.Debug().Str("transfer", id).Int("length", len(response)).Int("chunks", len(chunks)).Msg("response ready")
	s.unlockAndNotify()
}

// ReadResponseLength handles a read of the response-length slot
func (s *Session) ReadResponseLength() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	switch {
	case s.state.HasResponse():
		return util.EncodeLength(s.respLength)
	case s.state == models.Failed:
		return util.EncodeLength(util.HandlerFailed)
	}
	return util.EncodeLength(util.NoMessage)
}

// ReadResponseData handles a read of the response-data slot. Once the response is
// drained (or when there is none) it returns an empty value.
func (s *Session) ReadResponseData() []byte {
	s.mutex.Lock()
	if !s.state.HasResponse() || s.chunks == nil || s.chunks.Empty() {
		s.mutex.Unlock()
		return []byte{}
	}
	items, err := s.chunks.Get(1)
	if err != nil || len(items) == 0 {
		s.mutex.Unlock()
		s.logger.Error().Err(err).Msg("response chunk queue")
		return []byte{}
	}
	chunk := items[0].([]byte)
	s.cursor++
	if s.state == models.Ready {
		s.transition(models.Draining)
	}
	if s.chunks.Empty() {
		s.logger.Debug().Str("transfer", s.transferID).Int("chunks", s.cursor).Msg("response drained")
	}
	s.unlockAndNotify()
	return chunk
}
