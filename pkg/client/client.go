package client

import (
	"context"
	"math"
	"sync"

	"github.com/Krajiyah/ble-spp/pkg/models"
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Transport performs single attribute operations on a connected server.
// ble.Connection satisfies it.
type Transport interface {
	ReadValue(uuid string) ([]byte, error)
	WriteValue(uuid string, data []byte) error
}

// BLEClient sends messages to a transfer server and waits for their responses.
// A server holds one session, so calls on the same client are serialised.
type BLEClient struct {
	transport Transport
	mutex     sync.Mutex
	opts      options
	logger    zerolog.Logger
}

// NewBLEClient wraps a connected transport
func NewBLEClient(transport Transport, opts ...Option) (*BLEClient, error) {
	if transport == nil {
		return nil, errors.New("nil transport")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize < 1 || o.chunkSize > util.MaxChunkSize {
		return nil, errors.Errorf("chunk size %d outside [1, %d]", o.chunkSize, util.MaxChunkSize)
	}
	if o.pollInterval < 0 || o.pollTimeout < 0 {
		return nil, errors.New("poll interval and timeout must not be negative")
	}
	return &BLEClient{transport: transport, opts: o, logger: o.logger}, nil
}

type transfer struct {
	client     *BLEClient
	ctx        context.Context
	onProgress func(float64)
	logger     zerolog.Logger
}

func (t *transfer) progress(p float64) {
	if t.onProgress != nil {
		t.onProgress(p)
	}
}

func (t *transfer) cancelled(ctx context.Context, phase TransferPhase) error {
	if err := ctx.Err(); err != nil {
		return models.NewTransferError(models.Cancelled, phase.String(), err)
	}
	return nil
}

func (t *transfer) transportError(ctx context.Context, phase TransferPhase, err error) error {
	if ctx.Err() != nil {
		return models.NewTransferError(models.Cancelled, phase.String(), ctx.Err())
	}
	return models.NewTransferError(models.Transport, phase.String(), err)
}

func (t *transfer) write(ctx context.Context, uuid string, data []byte) error {
	if err := t.cancelled(ctx, Sending); err != nil {
		return err
	}
	if err := t.client.transport.WriteValue(uuid, data); err != nil {
		return t.transportError(ctx, Sending, errors.Wrapf(err, "write %s", uuid))
	}
	return nil
}

func (t *transfer) read(ctx context.Context, phase TransferPhase, uuid string) ([]byte, error) {
	if err := t.cancelled(ctx, phase); err != nil {
		return nil, err
	}
	b, err := t.client.transport.ReadValue(uuid)
	if err != nil {
		return nil, t.transportError(ctx, phase, errors.Wrapf(err, "read %s", uuid))
	}
	return b, nil
}

func (t *transfer) send(message []byte) error {
	if len(message) > math.MaxInt32 {
		return models.NewTransferError(models.Protocol, Sending.String(), errors.Errorf("message of %d bytes does not fit a length descriptor", len(message)))
	}
	if err := t.write(t.ctx, util.RequestLengthUUID, util.EncodeLength(int32(len(message)))); err != nil {
		return err
	}
	chunks := util.Split(message, t.client.opts.chunkSize)
	if len(chunks) == 0 {
		t.progress(0.5)
		return nil
	}
	sent := 0
	for _, chunk := range chunks {
		if err := t.write(t.ctx, util.RequestDataUUID, chunk); err != nil {
			return err
		}
		sent += len(chunk)
		t.progress(0.5 * float64(sent) / float64(len(message)))
	}
	t.logger.Debug().Int("bytes", len(message)).Int("chunks", len(chunks)).Msg("request sent")
	return nil
}

func (t *transfer) poll() (int, error) {
	ctx, cancel := util.Timeout(t.ctx, t.client.opts.pollTimeout)
	defer cancel()
	for polls := 1; ; polls++ {
		b, err := t.read(ctx, Polling, util.ResponseLengthUUID)
		if err != nil {
			return 0, err
		}
		n, err := util.DecodeLength(b)
		if err != nil {
			return 0, models.NewTransferError(models.Protocol, Polling.String(), err)
		}
		switch {
		case n >= 0:
			t.logger.Debug().Int32("length", n).Int("polls", polls).Msg("response announced")
			return int(n), nil
		case n == util.HandlerFailed:
			return 0, models.NewTransferError(models.Handler, Polling.String(), errors.New("server handler failed"))
		case n != util.NoMessage:
			return 0, models.NewTransferError(models.Protocol, Polling.String(), errors.Errorf("unexpected response length %d", n))
		}
		if err := util.Sleep(ctx, t.client.opts.pollInterval); err != nil {
			return 0, models.NewTransferError(models.Cancelled, Polling.String(), err)
		}
	}
}

func (t *transfer) receive(length int) ([]byte, error) {
	if length == 0 {
		t.progress(1.0)
		return []byte{}, nil
	}
	response := make([]byte, 0, length)
	for len(response) < length {
		chunk, err := t.read(t.ctx, Receiving, util.ResponseDataUUID)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, models.NewTransferError(models.Protocol, Receiving.String(), errors.Errorf("server ran out of data at %d of %d bytes", len(response), length))
		}
		if len(response)+len(chunk) > length {
			return nil, models.NewTransferError(models.Protocol, Receiving.String(), errors.Errorf("server sent %d bytes past the announced %d", len(response)+len(chunk)-length, length))
		}
		response = append(response, chunk...)
		t.progress(0.5 + 0.5*float64(len(response))/float64(length))
	}
	return response, nil
}

// SendMessage transfers message to the server and returns the server's response.
// onProgress, when set, is called with the transfer's completion in [0, 1]: the first half
// covers sending and the second half receiving. Cancelling ctx aborts the transfer between
// attribute operations; the server keeps whatever state it had.
func (client *BLEClient) SendMessage(ctx context.Context, message []byte, onProgress func(float64)) ([]byte, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	t := &transfer{client: client, ctx: ctx, onProgress: onProgress, logger: client.logger}
	if err := t.send(message); err != nil {
		client.logger.Warn().Err(err).Msg("transfer failed")
		return nil, err
	}
	length, err := t.poll()
	if err != nil {
		client.logger.Warn().Err(err).Msg("transfer failed")
		return nil, err
	}
	response, err := t.receive(length)
	if err != nil {
		client.logger.Warn().Err(err).Msg("transfer failed")
		return nil, err
	}
	client.logger.Debug().Int("request", len(message)).Int("response", len(response)).Msg("transfer complete")
	return response, nil
}
