package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Krajiyah/ble-spp/pkg/ble"
	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/pkg/errors"
)

// Config is shared by the example server and client
type Config struct {
	DeviceName      string
	ServerAddr      string
	ChunkSize       int
	MTU             int
	PollInterval    time.Duration
	PollTimeout     time.Duration
	ConnectTimeout  time.Duration
	ConnectAttempts int
	LogLevel        string
}

type fileConfig struct {
	DeviceName      string `toml:"device_name"`
	ServerAddr      string `toml:"server_addr"`
	ChunkSize       int    `toml:"chunk_size"`
	MTU             int    `toml:"mtu"`
	PollInterval    string `toml:"poll_interval"`
	PollTimeout     string `toml:"poll_timeout"`
	ConnectTimeout  string `toml:"connect_timeout"`
	ConnectAttempts int    `toml:"connect_attempts"`
	LogLevel        string `toml:"log_level"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	conn := ble.DefaultConnectionConfig()
	return Config{
		DeviceName:      "ble-spp",
		ChunkSize:       util.ChunkSize,
		MTU:             util.MTU,
		PollInterval:    100 * time.Millisecond,
		ConnectTimeout:  conn.ConnectTimeout,
		ConnectAttempts: conn.MaxAttempts,
		LogLevel:        "info",
	}
}

// Load reads path on top of Default. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}

	if meta.IsDefined("device_name") {
		cfg.DeviceName = strings.TrimSpace(raw.DeviceName)
	}
	if meta.IsDefined("server_addr") {
		cfg.ServerAddr = strings.TrimSpace(raw.ServerAddr)
	}
	if meta.IsDefined("chunk_size") {
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("mtu") {
		cfg.MTU = raw.MTU
	}
	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"poll_timeout", raw.PollTimeout, &cfg.PollTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
	} {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", d.key)
		}
		*d.dst = v
	}
	if meta.IsDefined("connect_attempts") {
		cfg.ConnectAttempts = raw.ConnectAttempts
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown config keys %v", undecoded)
	}
	return cfg, cfg.Validate()
}

// Validate checks that a chunk fits one ATT write at the configured MTU
func (c Config) Validate() error {
	if c.MTU < 4 {
		return errors.Errorf("mtu %d too small", c.MTU)
	}
	if c.ChunkSize < 1 || c.ChunkSize > c.MTU-3 {
		return errors.Errorf("chunk_size %d must be within [1, %d] for mtu %d", c.ChunkSize, c.MTU-3, c.MTU)
	}
	if c.ChunkSize > util.MaxChunkSize {
		return errors.Errorf("chunk_size %d exceeds %d", c.ChunkSize, util.MaxChunkSize)
	}
	if c.PollInterval < 0 || c.PollTimeout < 0 || c.ConnectTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.ConnectAttempts < 1 {
		return errors.Errorf("connect_attempts %d must be at least 1", c.ConnectAttempts)
	}
	return nil
}

// ConnectionConfig returns the client connection settings
func (c Config) ConnectionConfig() ble.ConnectionConfig {
	conn := ble.DefaultConnectionConfig()
	conn.ConnectTimeout = c.ConnectTimeout
	conn.MaxAttempts = c.ConnectAttempts
	conn.MTU = c.MTU
	conn.ChunkSize = c.ChunkSize
	return conn
}
