package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeConfig_Accessors(t *testing.T) {
	node := NodeConfig{"id": "n1", "type": "inject", "z": "f1"}

	assert.Equal(t, "n1", node.ID())
	assert.Equal(t, "inject", node.Type())
	assert.Equal(t, "f1", node.FlowID())
	assert.False(t, node.IsTab())

	var empty NodeConfig
	assert.Empty(t, empty.ID())

	odd := NodeConfig{"id": 42}
	assert.Empty(t, odd.ID())
}

func TestNodeConfig_Clone(t *testing.T) {
	node := NodeConfig{"id": "n1", "name": "first"}
	clone := node.Clone()
	clone["name"] = "second"

	assert.Equal(t, "first", node["name"])
	assert.Equal(t, "second", clone["name"])
}

func TestFlow_TabRoundTrip(t *testing.T) {
	flow := &Flow{ID: "f1", Label: "Main", Info: "docs", Disabled: true}
	tab := flow.Tab()

	assert.True(t, tab.IsTab())
	assert.Equal(t, "f1", tab.ID())

	rebuilt := FlowFromTab(tab, nil)
	assert.Equal(t, "Main", rebuilt.Label)
	assert.Equal(t, "docs", rebuilt.Info)
	assert.True(t, rebuilt.Disabled)
	assert.NotNil(t, rebuilt.Nodes)
}

func TestCredentials_IsSet(t *testing.T) {
	creds := Credentials{"user": "alice", "password": "", "token": nil, "port": 0}

	tests := []struct {
		field string
		want  bool
	}{
		{"user", true},
		{"password", false},
		{"token", false},
		{"missing", false},
		{"port", true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, creds.IsSet(tt.field))
		})
	}
}

func TestDeploymentType(t *testing.T) {
	assert.Equal(t, DeploymentTypeFull, DeploymentType("").OrDefault())
	assert.Equal(t, DeploymentTypeReload, DeploymentTypeReload.OrDefault())

	for _, d := range []DeploymentType{"full", "nodes", "flows", "reload"} {
		assert.True(t, d.IsValid(), d)
	}

	assert.False(t, DeploymentType("partial").IsValid())
}
