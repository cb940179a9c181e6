// Package models defines the flow configuration models managed by the admin API.
package models

// Well-known node config keys.
const (
	NodeKeyID          = "id"
	NodeKeyType        = "type"
	NodeKeyFlow        = "z"
	NodeKeyLabel       = "label"
	NodeKeyInfo        = "info"
	NodeKeyDisabled    = "disabled"
	NodeKeyCredentials = "credentials"
)

// NodeTypeTab is the node type used to store a flow header inside a flow set.
const NodeTypeTab = "tab"

// NodeConfig is an opaque node configuration object. Only the id, type and
// owning flow are ever read by the admin layer.
type NodeConfig map[string]any

// ID returns the node id, or an empty string when unset.
func (n NodeConfig) ID() string {
	return n.stringValue(NodeKeyID)
}

// Type returns the node type, or an empty string when unset.
func (n NodeConfig) Type() string {
	return n.stringValue(NodeKeyType)
}

// FlowID returns the id of the flow that owns the node. Config nodes scoped
// to the global flow return an empty string.
func (n NodeConfig) FlowID() string {
	return n.stringValue(NodeKeyFlow)
}

// IsTab reports whether the node is a flow header.
func (n NodeConfig) IsTab() bool {
	return n.Type() == NodeTypeTab
}

// Clone returns a shallow copy of the node config.
func (n NodeConfig) Clone() NodeConfig {
	clone := make(NodeConfig, len(n))
	for k, v := range n {
		clone[k] = v
	}

	return clone
}

func (n NodeConfig) stringValue(key string) string {
	if n == nil {
		return ""
	}

	value, _ := n[key].(string)

	return value
}

// CloneNodes returns a copy of the slice with every node shallow-copied.
func CloneNodes(nodes []NodeConfig) []NodeConfig {
	if nodes == nil {
		return nil
	}

	clone := make([]NodeConfig, len(nodes))
	for i, node := range nodes {
		clone[i] = node.Clone()
	}

	return clone
}
