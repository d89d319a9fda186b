package ble

import (
	"context"

	"github.com/Krajiyah/ble-spp/pkg/util"
	mapset "github.com/deckarep/golang-set"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

type connectOrDialHelper func(context.Context) (GattClient, string, error)

func (c *RealConnection) wrapConnectOrDial(ctx context.Context, method string, fn connectOrDialHelper) error {
	c.connectionMutex.Lock()
	defer c.connectionMutex.Unlock()
	onFailure := func(attempt int, err error) {
		c.listener.OnInternalError(errors.Wrapf(err, "%s attempt %d", method, attempt))
	}
	return retry(ctx, c.config.MaxAttempts, c.config.Backoff, c.logger, method, onFailure, func(_ int) error {
		c.checkAndCancel()
		attemptCtx, cancel := util.Timeout(ctx, c.config.ConnectTimeout)
		defer cancel()
		cln, addr, err := fn(attemptCtx)
		if err != nil {
			return err
		}
		chars, err := c.completeBLEClient(cln)
		if err != nil {
			cln.CancelConnection()
			return err
		}
		c.cln = cln
		c.characteristics = chars
		c.connectedAddr = addr
		c.logger.Info().Str("addr", addr).Msg("connected")
		c.listener.OnConnected(addr)
		go c.watchDisconnect(cln)
		return nil
	})
}

func (c *RealConnection) watchDisconnect(cln GattClient) {
	<-cln.Disconnected()
	c.connectionMutex.Lock()
	current := c.cln == cln
	if current {
		c.cln = nil
		c.connectedAddr = ""
	}
	c.connectionMutex.Unlock()
	if current {
		c.logger.Info().Msg("disconnected")
		c.listener.OnDisconnected()
	}
}

// must hold connectionMutex
func (c *RealConnection) checkAndCancel() {
	if c.cln != nil {
		c.cln.CancelConnection()
		c.cln = nil
		c.connectedAddr = ""
	}
}

func (c *RealConnection) completeBLEClient(cln GattClient) (map[string]*ble.Characteristic, error) {
	txMTU, err := cln.ExchangeMTU(c.config.MTU)
	if err != nil {
		return nil, errors.Wrap(err, "ExchangeMTU issue")
	}
	if txMTU < c.config.ChunkSize+3 {
		c.logger.Warn().Int("mtu", txMTU).Int("chunk", c.config.ChunkSize).Msg("negotiated MTU is smaller than a chunk write")
	}
	p, err := cln.DiscoverProfile(true)
	if err != nil {
		return nil, errors.Wrap(err, "DiscoverProfile issue")
	}
	for _, s := range p.Services {
		if !util.UuidEqualStr(s.UUID, util.ServiceUUID) {
			continue
		}
		missing := mapset.NewSet()
		for _, uuid := range util.TransferCharUUIDs {
			missing.Add(uuid)
		}
		found := map[string]*ble.Characteristic{}
		for _, char := range s.Characteristics {
			for _, uuid := range util.TransferCharUUIDs {
				if util.UuidEqualStr(char.UUID, uuid) {
					found[uuid] = char
					missing.Remove(uuid)
				}
			}
		}
		if missing.Cardinality() > 0 {
			return nil, errors.Errorf("transfer service is missing characteristics %v", missing.ToSlice())
		}
		return found, nil
	}
	return nil, errors.New("could not find transfer service in discovered profile")
}
