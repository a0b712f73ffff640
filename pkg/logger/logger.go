// pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console-friendly zerolog logger.
func New(level zerolog.Level) zerolog.Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput is New with an explicit sink, for tests.
func NewWithOutput(level zerolog.Level, out io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
