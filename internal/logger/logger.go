// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger at the given level ("debug", "info", ...). Unknown
// levels fall back to info. pretty switches to human-readable console output.
func New(level string, pretty bool) zerolog.Logger {
	return newWithWriter(os.Stdout, level, pretty)
}

func newWithWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "trend-sentinel").Logger()
}
