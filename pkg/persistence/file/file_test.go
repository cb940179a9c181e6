package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	// Test with regular path
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	// Test with file:// prefix
	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_Close(t *testing.T) {
	fp := NewPersistence("./test-data")
	err := fp.Close(t.Context())
	assert.NoError(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	assert.NoError(t, fp.HealthCheck(t.Context()))

	missing := NewPersistence(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, missing.HealthCheck(t.Context()))
}

func TestPersistence_LoadFlows_Empty(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	snapshot, err := fp.LoadFlows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Flows)
	assert.NotNil(t, snapshot.Flows)
	assert.Empty(t, snapshot.Credentials)
}

func TestPersistence_SaveAndLoad(t *testing.T) {
	testDir := t.TempDir()
	fp := NewPersistence(testDir)

	snapshot := &persistence.Snapshot{
		Flows: []models.NodeConfig{
			{"id": "f1", "type": "tab", "label": "Main"},
			{"id": "n1", "type": "inject", "z": "f1"},
		},
		Credentials: map[string]models.Credentials{
			"n1": {"user": "alice", "password": "secret"},
		},
	}

	err := fp.SaveFlows(t.Context(), snapshot)
	require.NoError(t, err)

	loaded, err := fp.LoadFlows(t.Context())
	require.NoError(t, err)
	require.Len(t, loaded.Flows, 2)
	assert.Equal(t, "f1", loaded.Flows[0].ID())
	assert.Equal(t, "f1", loaded.Flows[1].FlowID())
	assert.Equal(t, "secret", loaded.Credentials["n1"]["password"])

	// Second save keeps a backup of the first
	snapshot.Flows = snapshot.Flows[:1]
	err = fp.SaveFlows(t.Context(), snapshot)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(testDir, "flows.json.backup"))
	assert.NoError(t, err)

	loaded, err = fp.LoadFlows(t.Context())
	require.NoError(t, err)
	assert.Len(t, loaded.Flows, 1)
}

func TestPersistence_LoadFlows_Corrupted(t *testing.T) {
	testDir := t.TempDir()
	err := os.WriteFile(filepath.Join(testDir, "flows.json"), []byte("{not json"), 0600)
	require.NoError(t, err)

	fp := NewPersistence(testDir)
	_, err = fp.LoadFlows(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal flows.json")
}
