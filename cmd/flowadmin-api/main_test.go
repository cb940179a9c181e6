package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_HonoursLevel(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer

	logger := setupLogger(&buf, "warn")
	logger.Info("starting")
	logger.Warn("storage slow")

	output := buf.String()
	assert.NotContains(t, output, "starting")
	assert.Contains(t, output, "storage slow")
	assert.Contains(t, output, "module=api")
}
