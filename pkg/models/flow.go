package models

// GlobalFlowID addresses the pseudo-flow holding nodes that belong to no tab.
const GlobalFlowID = "global"

// FlowSet is the whole deployed configuration together with the revision the
// store assigned when it was last persisted.
type FlowSet struct {
	Rev   string       `json:"rev,omitempty"`
	Flows []NodeConfig `json:"flows"`
}

// Clone returns a deep enough copy of the flow set for callers to mutate.
func (fs *FlowSet) Clone() *FlowSet {
	if fs == nil {
		return nil
	}

	return &FlowSet{
		Rev:   fs.Rev,
		Flows: CloneNodes(fs.Flows),
	}
}

// Flow is one named sub-graph within a flow set.
type Flow struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Info     string       `json:"info,omitempty"`
	Disabled bool         `json:"disabled,omitempty"`
	Nodes    []NodeConfig `json:"nodes"`
}

// Tab renders the flow header as the node config stored in a flow set.
func (f *Flow) Tab() NodeConfig {
	tab := NodeConfig{
		NodeKeyID:    f.ID,
		NodeKeyType:  NodeTypeTab,
		NodeKeyLabel: f.Label,
	}

	if f.Info != "" {
		tab[NodeKeyInfo] = f.Info
	}

	if f.Disabled {
		tab[NodeKeyDisabled] = true
	}

	return tab
}

// FlowFromTab builds a flow from its header node and the nodes it owns.
func FlowFromTab(tab NodeConfig, nodes []NodeConfig) *Flow {
	label, _ := tab[NodeKeyLabel].(string)
	info, _ := tab[NodeKeyInfo].(string)
	disabled, _ := tab[NodeKeyDisabled].(bool)

	if nodes == nil {
		nodes = []NodeConfig{}
	}

	return &Flow{
		ID:       tab.ID(),
		Label:    label,
		Info:     info,
		Disabled: disabled,
		Nodes:    nodes,
	}
}
