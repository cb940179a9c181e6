package redis

import (
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Persistence, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	p, err := NewPersistence(t.Context(), slog.Default(), "redis://"+server.Addr()+"/0")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(t.Context())
	})

	return p, server
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := NewPersistence(t.Context(), slog.Default(), "not-a-url")
	assert.Error(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p, server := setupRedis(t)

	assert.NoError(t, p.HealthCheck(t.Context()))

	server.Close()
	assert.Error(t, p.HealthCheck(t.Context()))
}

func TestPersistence_LoadFlows_Empty(t *testing.T) {
	p, _ := setupRedis(t)

	snapshot, err := p.LoadFlows(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Flows)
	assert.Empty(t, snapshot.Flows)
	assert.Empty(t, snapshot.Credentials)
}

func TestPersistence_SaveAndLoadFlows(t *testing.T) {
	p, server := setupRedis(t)

	snapshot := &persistence.Snapshot{
		Flows: []models.NodeConfig{
			{"id": "f1", "type": "tab", "label": "Main"},
			{"id": "n1", "type": "http request", "z": "f1"},
		},
		Credentials: map[string]models.Credentials{
			"n1": {"user": "alice", "password": "secret"},
		},
	}

	err := p.SaveFlows(t.Context(), snapshot)
	require.NoError(t, err)

	assert.True(t, server.Exists("flowadmin:flows"))
	credKeys, err := server.HKeys("flowadmin:credentials")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, credKeys)

	loaded, err := p.LoadFlows(t.Context())
	require.NoError(t, err)
	require.Len(t, loaded.Flows, 2)
	assert.Equal(t, "n1", loaded.Flows[1].ID())
	assert.Equal(t, "alice", loaded.Credentials["n1"]["user"])

	// Credentials removed from the snapshot are removed from the hash
	snapshot.Credentials = nil

	err = p.SaveFlows(t.Context(), snapshot)
	require.NoError(t, err)

	loaded, err = p.LoadFlows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, loaded.Credentials)
}

func TestPersistence_LoadFlows_Corrupted(t *testing.T) {
	p, server := setupRedis(t)

	require.NoError(t, server.Set("flowadmin:flows", "{broken"))

	_, err := p.LoadFlows(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal flows")
}
