package flowstore

import (
	"testing"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDiffFlows(t *testing.T) {
	previous := []models.NodeConfig{
		{"id": "t1", "type": "tab"},
		{"id": "n1", "type": "inject", "z": "t1"},
		{"id": "n2", "type": "debug", "z": "t1"},
		{"id": "c1", "type": "mqtt-broker"},
	}

	next := []models.NodeConfig{
		{"id": "t1", "type": "tab"},
		{"id": "n1", "type": "inject", "z": "t1", "repeat": "5"},
		{"id": "c1", "type": "mqtt-broker"},
		{"id": "t2", "type": "tab"},
		{"id": "n3", "type": "debug", "z": "t2"},
	}

	diff := diffFlows(previous, next)

	want := deploymentDiff{Added: 2, Changed: 1, Removed: 1, ChangedFlows: 2}
	if d := cmp.Diff(want, diff); d != "" {
		t.Errorf("diffFlows() mismatch (-want +got):\n%s", d)
	}

	assert.False(t, diff.Empty())
}

func TestDiffFlows_Unchanged(t *testing.T) {
	nodes := []models.NodeConfig{
		{"id": "t1", "type": "tab"},
		{"id": "c1", "type": "mqtt-broker"},
	}

	diff := diffFlows(nodes, nodes)

	assert.True(t, diff.Empty())
	assert.Zero(t, diff.ChangedFlows)
}

func TestDiffFlows_DecodedNumbers(t *testing.T) {
	previous := []models.NodeConfig{{"id": "n1", "type": "inject", "z": "t1", "repeat": float64(5)}}
	next := []models.NodeConfig{{"id": "n1", "type": "inject", "z": "t1", "repeat": float64(10)}}

	diff := diffFlows(previous, next)

	assert.Equal(t, 1, diff.Changed)
	assert.Equal(t, 1, diff.ChangedFlows)
}
