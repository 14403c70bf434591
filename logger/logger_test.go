package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriterLevels(t *testing.T) {
	var buf bytes.Buffer

	InitWriter(&buf, "warn")
	Logger.Info().Msg("hidden")
	Logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	InitWriter(&buf, "bogus")
	Logger.Debug().Msg("debug line")
	Logger.Info().Msg("info line")
	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestConsoleWriterUsesStderr(t *testing.T) {
	w := consoleWriter(true)
	assert.Equal(t, os.Stderr, w.Out)
	assert.True(t, w.NoColor)
}
