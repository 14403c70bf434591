package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(io.Discard)
}

// Init sets up the console logger on stderr, leaving stdout to the
// tool's own output. Unknown levels fall back to info.
func Init(logLevel string, noColor bool) {
	InitWriter(consoleWriter(noColor), logLevel)
}

func consoleWriter(noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}
}

// InitWriter points the logger at w, mostly for tests
func InitWriter(w io.Writer, logLevel string) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
