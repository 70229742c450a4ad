package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var globalLogger atomic.Pointer[zerolog.Logger]

// GetLogger returns the process logger, console output at info level until New is called.
func GetLogger() *zerolog.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	l := zerolog.New(consoleWriter).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if globalLogger.CompareAndSwap(nil, &l) {
		return &l
	}
	return globalLogger.Load()
}

// New constructs a zerolog logger based on level and format configuration
// and installs it as the process logger.
func New(level, format string) (zerolog.Logger, error) {
	return NewWithWriter(level, format, os.Stdout)
}

func NewWithWriter(level, format string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, err
	}

	var writer zerolog.Logger
	switch strings.ToLower(format) {
	case "json":
		writer = zerolog.New(out).With().Timestamp().Logger()
	case "console":
		writer = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	default:
		return zerolog.Logger{}, errors.New("unsupported log format")
	}

	l := writer.Level(lvl)
	globalLogger.Store(&l)

	return l, nil
}

// FromContext returns the logger stored on ctx by the request middleware,
// falling back to the process logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return GetLogger()
}
