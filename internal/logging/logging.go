package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "BLESPP_LOG_LEVEL"
	EnvLogNoColor = "BLESPP_LOG_NOCOLOR"
)

// New builds a console logger writing to w. The level comes from EnvLogLevel when it is
// set, otherwise from level; unknown names fall back to info.
func New(level string, w io.Writer) zerolog.Logger {
	if env, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		return newLogger(env, w)
	}
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	return newLogger(lvl, w)
}

func newLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    os.Getenv(EnvLogNoColor) != "",
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	}
	return zerolog.InfoLevel, false
}
