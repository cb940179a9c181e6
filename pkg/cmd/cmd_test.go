package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowadmin/pkg/audit"
	"github.com/dukex/flowadmin/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	tests := map[string]string{
		"file:///tmp/flows":             "file",
		"/tmp/flows":                    "file",
		"postgres://user@localhost/db":  "postgres",
		"postgresql://localhost/db":     "postgresql",
		"redis://localhost:6379/0":      "redis",
		"mongodb://localhost/flowadmin": "file",
	}

	for url, expected := range tests {
		assert.Equal(t, expected, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence_File(t *testing.T) {
	p, err := NewPersistence(context.Background(), slog.Default(), "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)
}

func TestNewAuditSink(t *testing.T) {
	ctx := context.Background()

	sink, closeFn, err := NewAuditSink(ctx, "log", "", slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &audit.LogSink{}, sink)
	assert.NoError(t, closeFn())

	sink, closeFn, err = NewAuditSink(ctx, "gochannel", "", slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &audit.PublisherSink{}, sink)
	assert.NoError(t, closeFn())

	_, _, err = NewAuditSink(ctx, "kafka", "", slog.Default())
	assert.Error(t, err)

	_, _, err = NewAuditSink(ctx, "rabbitmq", "", slog.Default())
	assert.ErrorContains(t, err, "unsupported audit bus provider")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestNewAuditSink_GoChannelDeliversToLog(t *testing.T) {
	var out syncBuffer

	sink, closeFn, err := NewAuditSink(t.Context(), "gochannel", "", slog.New(slog.NewTextHandler(&out, nil)))
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, closeFn())
	}()

	sink.Audit(t.Context(), audit.NewEvent(audit.EventFlowRemove, "grace", map[string]any{"id": "f9"}))

	assert.Eventually(t, func() bool {
		output := out.String()

		return strings.Contains(output, "event=flow.remove") && strings.Contains(output, "user=grace")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(context.Background(), slog.Default(), "")
	require.NoError(t, err)
	assert.Contains(t, reg.NodeTypes(), "http request")

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("credentials:\n  custom:\n    key:\n      type: password\n"), 0600))

	reg, err = NewRegistry(context.Background(), slog.Default(), path)
	require.NoError(t, err)
	assert.Contains(t, reg.NodeTypes(), "custom")

	_, err = NewRegistry(context.Background(), slog.Default(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
