package server

import (
	"context"
	"sync"

	"github.com/Krajiyah/ble-spp/pkg/ble"
	"github.com/Krajiyah/ble-spp/pkg/models"
	"github.com/Krajiyah/ble-spp/pkg/util"
	goble "github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BLEServer exposes a transfer Session as a GATT service with four characteristics
type BLEServer struct {
	name        string
	statusMutex sync.Mutex
	status      models.BLEServerStatus
	session     *Session
	service     *goble.Service
	methods     ble.CoreMethods
	opts        options
	logger      zerolog.Logger
	listener    models.BLEServerListener
}

// NewBLEServer builds a server that answers every request with handler's response
func NewBLEServer(name string, handler Handler, opts ...Option) (*BLEServer, error) {
	if handler == nil {
		return nil, errors.New("nil handler")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize < 1 || o.chunkSize > util.MaxChunkSize {
		return nil, errors.Errorf("chunk size %d outside [1, %d]", o.chunkSize, util.MaxChunkSize)
	}
	if o.methods == nil {
		o.methods = ble.NewCoreMethods()
	}
	server := &BLEServer{
		name: name, status: models.Stopped,
		methods: o.methods, opts: o,
		logger: o.logger, listener: o.listener,
	}
	server.session = newSession(handler, o.chunkSize, o.logger)
	server.session.onState = o.listener.OnSessionStateChanged
	server.session.onError = o.listener.OnInternalError
	server.service = getService(server)
	return server, nil
}

// Session returns the transfer session served by this server
func (server *BLEServer) Session() *Session { return server.session }

// Status returns the last reported server status
func (server *BLEServer) Status() models.BLEServerStatus {
	server.statusMutex.Lock()
	defer server.statusMutex.Unlock()
	return server.status
}

func getService(server *BLEServer) *goble.Service {
	service := goble.NewService(goble.MustParse(util.ServiceUUID))
	s := server.session
	service.AddCharacteristic(newWriteChar(server, util.RequestLengthUUID, "Request Length", s.WriteRequestLength))
	service.AddCharacteristic(newWriteChar(server, util.RequestDataUUID, "Request Data", s.WriteRequestData))
	service.AddCharacteristic(newReadChar(server, util.ResponseLengthUUID, "Response Length", s.ReadResponseLength))
	service.AddCharacteristic(newReadChar(server, util.ResponseDataUUID, "Response Data", s.ReadResponseData))
	return service
}

func (server *BLEServer) setStatus(status models.BLEServerStatus, err error) {
	server.statusMutex.Lock()
	server.status = status
	server.statusMutex.Unlock()
	server.listener.OnServerStatusChanged(status, err)
}

// Run registers the service and advertises it under the server name until ctx is done
func (server *BLEServer) Run(ctx context.Context) error {
	if err := server.methods.SetDefaultDevice(server.opts.deviceTimeout); err != nil {
		server.setStatus(models.Crashed, err)
		return err
	}
	if err := server.methods.AddService(server.service); err != nil {
		err = errors.Wrap(err, "AddService issue")
		server.setStatus(models.Crashed, err)
		return err
	}
	server.setStatus(models.Running, nil)
	server.logger.Info().Str("name", server.name).Msg("advertising")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.methods.AdvertiseNameAndServices(gctx, server.name, goble.MustParse(util.ServiceUUID))
		if gctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("advertising stopped")
		}
		return errors.Wrap(err, "AdvertiseNameAndServices issue")
	})
	g.Go(func() error {
		<-gctx.Done()
		return errors.Wrap(server.methods.Stop(), "Stop issue")
	})
	if err := g.Wait(); err != nil {
		server.logger.Error().Err(err).Msg("server crashed")
		server.setStatus(models.Crashed, err)
		return err
	}
	server.logger.Info().Msg("stopped")
	server.setStatus(models.Stopped, nil)
	return nil
}
