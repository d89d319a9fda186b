package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Krajiyah/ble-spp/pkg/util"
	"gotest.tools/assert"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "ble-spp.toml")
	assert.NilError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NilError(t, cfg.Validate())
	assert.Equal(t, cfg.ChunkSize, util.ChunkSize)
	assert.Equal(t, cfg.MTU, util.MTU)
}

func TestLoadOverridesDefinedKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
device_name = " sensor-1 "
server_addr = "11:22:33:44:55:66"
chunk_size = 100
poll_interval = "20ms"
poll_timeout = "30s"
connect_attempts = 2
log_level = "debug"
`))
	assert.NilError(t, err)
	assert.Equal(t, cfg.DeviceName, "sensor-1")
	assert.Equal(t, cfg.ServerAddr, "11:22:33:44:55:66")
	assert.Equal(t, cfg.ChunkSize, 100)
	assert.Equal(t, cfg.MTU, util.MTU)
	assert.Equal(t, cfg.PollInterval, 20*time.Millisecond)
	assert.Equal(t, cfg.PollTimeout, 30*time.Second)
	assert.Equal(t, cfg.ConnectTimeout, Default().ConnectTimeout)
	assert.Equal(t, cfg.LogLevel, "debug")

	conn := cfg.ConnectionConfig()
	assert.Equal(t, conn.MaxAttempts, 2)
	assert.Equal(t, conn.ConnectTimeout, Default().ConnectTimeout)
	assert.Equal(t, conn.MTU, util.MTU)
	assert.Equal(t, conn.ChunkSize, 100)
}

func TestConnectionConfigCarriesLinkSizes(t *testing.T) {
	cfg, err := Load(writeConfig(t, "mtu = 128\nchunk_size = 100\n"))
	assert.NilError(t, err)
	conn := cfg.ConnectionConfig()
	assert.Equal(t, conn.MTU, 128)
	assert.Equal(t, conn.ChunkSize, 100)
}

func TestLoadRejectsChunkLargerThanMTU(t *testing.T) {
	_, err := Load(writeConfig(t, "mtu = 100\nchunk_size = 98\n"))
	assert.ErrorContains(t, err, "chunk_size 98 must be within [1, 97]")

	cfg, err := Load(writeConfig(t, "mtu = 100\nchunk_size = 97\n"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.ChunkSize, 97)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "load config")

	_, err = Load(writeConfig(t, `poll_interval = "soon"`))
	assert.ErrorContains(t, err, "parse poll_interval")

	_, err = Load(writeConfig(t, `chunk = 10`))
	assert.ErrorContains(t, err, "unknown config keys")

	_, err = Load(writeConfig(t, `connect_attempts = 0`))
	assert.ErrorContains(t, err, "connect_attempts")
}
